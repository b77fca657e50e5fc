package services

import (
	"ship-swift/internal/apperrors"
	"ship-swift/internal/models"
)

func (sts *ServiceTestSuite) TestApproveJobRequestClaimsJob() {
	client := sts.seedClient(true)
	d1 := sts.seedDriver(true)
	d2 := sts.seedDriver(true)
	job := sts.seedJob(client)

	r1, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, d1.ID)
	sts.Require().NoError(err)
	r2, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, d2.ID)
	sts.Require().NoError(err)

	approval, err := sts.Requests.ApproveJobRequest(sts.Ctx, r1.ID)
	sts.Require().NoError(err)
	sts.False(approval.IsDirect())
	sts.True(approval.JobRequest.IsApproved)

	sts.True(sts.reloadJobRequest(r1.ID).IsApproved)
	sts.False(sts.reloadJobRequest(r2.ID).IsApproved, "other requests are not rejected automatically")

	reloaded := sts.reloadJob(job.ID)
	sts.Equal(models.PackageStatusClaimed, reloaded.PackageStatus)
	sts.Require().NotNil(reloaded.ApprovedRequestID)
	sts.Equal(r1.ID, *reloaded.ApprovedRequestID)

	actives := []models.ActiveJob{}
	sts.Require().NoError(sts.DB.Where("courier_job_id = ?", job.ID).Find(&actives).Error)
	sts.Require().Len(actives, 1)
	sts.Equal(d1.ID, actives[0].DriverID)
	sts.Equal(client.ID, actives[0].ClientID)
	sts.Equal(models.PackageStatusClaimed, actives[0].JobStatus)
	sts.False(actives[0].StartDate.IsZero())
}

func (sts *ServiceTestSuite) TestSecondApprovalIsRejected() {
	client := sts.seedClient(true)
	d1 := sts.seedDriver(true)
	d2 := sts.seedDriver(true)
	job := sts.seedJob(client)

	r1, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, d1.ID)
	sts.Require().NoError(err)
	r2, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, d2.ID)
	sts.Require().NoError(err)

	_, err = sts.Requests.ApproveJobRequest(sts.Ctx, r1.ID)
	sts.Require().NoError(err)

	_, err = sts.Requests.ApproveJobRequest(sts.Ctx, r2.ID)
	sts.Require().Error(err)
	sts.ErrorIs(err, ErrAlreadyClaimed)
	sts.Equal(apperrors.KindConflict, apperrors.KindOf(err))

	// откат: второй отклик не одобрен, доставка одна
	sts.False(sts.reloadJobRequest(r2.ID).IsApproved)
	sts.Equal(int64(1), sts.countActiveJobs(job.ID))
	sts.Equal(r1.ID, *sts.reloadJob(job.ID).ApprovedRequestID)
}

func (sts *ServiceTestSuite) TestApproveTwiceSameRequest() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	job := sts.seedJob(client)

	req, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, driver.ID)
	sts.Require().NoError(err)
	_, err = sts.Requests.ApproveJobRequest(sts.Ctx, req.ID)
	sts.Require().NoError(err)

	_, err = sts.Requests.ApproveJobRequest(sts.Ctx, req.ID)
	sts.ErrorIs(err, ErrAlreadyApproved)
	sts.Equal(int64(1), sts.countActiveJobs(job.ID))
}

func (sts *ServiceTestSuite) TestApproveUnknownRequest() {
	_, err := sts.Requests.ApproveJobRequest(sts.Ctx, "missing")
	sts.True(apperrors.Is(err, apperrors.KindNotFound))

	_, err = sts.Requests.ApproveDirectRequest(sts.Ctx, "missing")
	sts.True(apperrors.Is(err, apperrors.KindNotFound))
}

func (sts *ServiceTestSuite) TestApprovalRollsBackWhenActiveJobFails() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	job := sts.seedJob(client)

	req, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, driver.ID)
	sts.Require().NoError(err)

	// последний шаг транзакции завершится ошибкой
	sts.Require().NoError(sts.DB.Migrator().DropTable(&models.ActiveJob{}))

	_, err = sts.Requests.ApproveJobRequest(sts.Ctx, req.ID)
	sts.Require().Error(err)

	reloaded := sts.reloadJob(job.ID)
	sts.Equal(models.PackageStatusUnclaimed, reloaded.PackageStatus)
	sts.Nil(reloaded.ApprovedRequestID)
	sts.False(sts.reloadJobRequest(req.ID).IsApproved)
}

func (sts *ServiceTestSuite) TestApproveDirectRequestCreatesCanonicalJobRequest() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	job := sts.seedJob(client)

	direct, err := sts.Requests.CreateDirectRequest(sts.Ctx, &models.CreateDirectRequestRequest{
		CourierJobID: job.ID,
		ClientID:     client.ID,
		DriverID:     driver.ID,
	})
	sts.Require().NoError(err)
	sts.True(sts.reloadJob(job.ID).IsDirect)

	approval, err := sts.Requests.ApproveDirectRequest(sts.Ctx, direct.ID)
	sts.Require().NoError(err)
	sts.True(approval.IsDirect())
	sts.True(approval.DirectRequest.IsApproved)

	stored := &models.DirectRequest{}
	sts.Require().NoError(sts.DB.First(stored, "id = ?", direct.ID).Error)
	sts.True(stored.IsApproved)

	canonical := []models.JobRequest{}
	sts.Require().NoError(sts.DB.Where("courier_job_id = ?", job.ID).Find(&canonical).Error)
	sts.Require().Len(canonical, 1)
	sts.Equal(driver.ID, canonical[0].DriverID)
	sts.True(canonical[0].IsApproved)

	reloaded := sts.reloadJob(job.ID)
	sts.Equal(models.PackageStatusClaimed, reloaded.PackageStatus)
	sts.Equal(canonical[0].ID, *reloaded.ApprovedRequestID)
	sts.Equal(client.ID, approval.ActiveJob.ClientID)
	sts.Equal(driver.ID, approval.ActiveJob.DriverID)
}

func (sts *ServiceTestSuite) TestApproveDirectRequestReusesExistingApplication() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	job := sts.seedJob(client)

	applied, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, driver.ID)
	sts.Require().NoError(err)
	direct, err := sts.Requests.CreateDirectRequest(sts.Ctx, &models.CreateDirectRequestRequest{
		CourierJobID: job.ID,
		ClientID:     client.ID,
		DriverID:     driver.ID,
	})
	sts.Require().NoError(err)

	approval, err := sts.Requests.ApproveDirectRequest(sts.Ctx, direct.ID)
	sts.Require().NoError(err)
	sts.Equal(applied.ID, approval.JobRequest.ID)
	sts.True(sts.reloadJobRequest(applied.ID).IsApproved)
	sts.Equal(applied.ID, *sts.reloadJob(job.ID).ApprovedRequestID)
}
