package services

import (
	"ship-swift/internal/apperrors"
	"ship-swift/internal/models"
)

func (sts *ServiceTestSuite) TestListJobsFilters() {
	c1 := sts.seedClient(true)
	c2 := sts.seedClient(true)
	open := sts.seedJob(c1)
	sts.seedJob(c2)
	claimed := sts.approvedActiveJob()

	all, err := sts.Jobs.ListJobs(sts.Ctx, models.JobFilter{})
	sts.Require().NoError(err)
	sts.Len(all, 3)

	mine, err := sts.Jobs.ListJobs(sts.Ctx, models.JobFilter{ClientID: c1.ID})
	sts.Require().NoError(err)
	sts.Require().Len(mine, 1)
	sts.Equal(open.ID, mine[0].ID)

	openOnly, err := sts.Jobs.ListJobs(sts.Ctx, models.JobFilter{OpenOnly: true})
	sts.Require().NoError(err)
	sts.Len(openOnly, 2)
	for _, j := range openOnly {
		sts.NotEqual(claimed.CourierJobID, j.ID)
	}

	status := models.PackageStatusClaimed
	byStatus, err := sts.Jobs.ListJobs(sts.Ctx, models.JobFilter{Status: &status})
	sts.Require().NoError(err)
	sts.Require().Len(byStatus, 1)
	sts.Equal(claimed.CourierJobID, byStatus[0].ID)

	byDistrict, err := sts.Jobs.ListJobs(sts.Ctx, models.JobFilter{District: "south"})
	sts.Require().NoError(err)
	sts.Len(byDistrict, 3)

	paged, err := sts.Jobs.ListJobs(sts.Ctx, models.JobFilter{Limit: 2})
	sts.Require().NoError(err)
	sts.Len(paged, 2)
}

func (sts *ServiceTestSuite) TestUpdateJobOnlyWhileUnclaimed() {
	client := sts.seedClient(true)
	job := sts.seedJob(client)

	title := "Three boxes"
	updated, err := sts.Jobs.UpdateJob(sts.Ctx, job.ID, &models.UpdateCourierJobRequest{Title: &title})
	sts.Require().NoError(err)
	sts.Equal("Three boxes", updated.Title)
	sts.Equal(job.Budget, updated.Budget)

	_, err = sts.Jobs.UpdateJob(sts.Ctx, job.ID, &models.UpdateCourierJobRequest{})
	sts.ErrorIs(err, ErrNoChanges)

	active := sts.approvedActiveJob()
	_, err = sts.Jobs.UpdateJob(sts.Ctx, active.CourierJobID, &models.UpdateCourierJobRequest{Title: &title})
	sts.ErrorIs(err, ErrJobLocked)

	_, err = sts.Jobs.UpdateJob(sts.Ctx, "missing", &models.UpdateCourierJobRequest{Title: &title})
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}

func (sts *ServiceTestSuite) TestDeleteJob() {
	client := sts.seedClient(true)
	job := sts.seedJob(client)
	_, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, sts.seedDriver(true).ID)
	sts.Require().NoError(err)

	sts.Require().NoError(sts.Jobs.DeleteJob(sts.Ctx, job.ID))
	_, err = sts.Jobs.GetJob(sts.Ctx, job.ID)
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))

	var n int64
	sts.Require().NoError(sts.DB.Model(&models.JobRequest{}).Where("courier_job_id = ?", job.ID).Count(&n).Error)
	sts.Zero(n)

	active := sts.approvedActiveJob()
	err = sts.Jobs.DeleteJob(sts.Ctx, active.CourierJobID)
	sts.ErrorIs(err, ErrJobLocked)
	_, err = sts.Jobs.GetJob(sts.Ctx, active.CourierJobID)
	sts.NoError(err)
}
