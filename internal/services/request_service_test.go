package services

import (
	"ship-swift/internal/apperrors"
	"ship-swift/internal/models"
)

func (sts *ServiceTestSuite) TestHasRequestAndDuplicateApplication() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	job := sts.seedJob(client)

	has, err := sts.Requests.HasRequest(sts.Ctx, job.ID, driver.ID)
	sts.Require().NoError(err)
	sts.False(has)

	_, err = sts.Requests.ApplyForJob(sts.Ctx, job.ID, driver.ID)
	sts.Require().NoError(err)

	has, err = sts.Requests.HasRequest(sts.Ctx, job.ID, driver.ID)
	sts.Require().NoError(err)
	sts.True(has)

	_, err = sts.Requests.ApplyForJob(sts.Ctx, job.ID, driver.ID)
	sts.ErrorIs(err, ErrAlreadyApplied)
	sts.Equal(apperrors.KindConflict, apperrors.KindOf(err))

	requests, err := sts.Requests.ListRequestsForJob(sts.Ctx, job.ID)
	sts.Require().NoError(err)
	sts.Len(requests, 1)
}

func (sts *ServiceTestSuite) TestUnverifiedDriverCannotApply() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(false)
	job := sts.seedJob(client)

	_, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, driver.ID)
	sts.ErrorIs(err, ErrNotVerified)
	sts.Equal(apperrors.KindForbidden, apperrors.KindOf(err))

	var n int64
	sts.Require().NoError(sts.DB.Model(&models.JobRequest{}).Count(&n).Error)
	sts.Zero(n)
}

func (sts *ServiceTestSuite) TestApplyForClaimedOrDirectJob() {
	active := sts.approvedActiveJob()
	late := sts.seedDriver(true)

	_, err := sts.Requests.ApplyForJob(sts.Ctx, active.CourierJobID, late.ID)
	sts.ErrorIs(err, ErrJobNotOpen)

	client := sts.seedClient(true)
	job := sts.seedJob(client)
	_, err = sts.Requests.CreateDirectRequest(sts.Ctx, &models.CreateDirectRequestRequest{
		CourierJobID: job.ID,
		ClientID:     client.ID,
		DriverID:     sts.seedDriver(true).ID,
	})
	sts.Require().NoError(err)

	_, err = sts.Requests.ApplyForJob(sts.Ctx, job.ID, late.ID)
	sts.ErrorIs(err, ErrJobNotOpen)
}

func (sts *ServiceTestSuite) TestUnverifiedClientCannotPostOrInvite() {
	unverified := sts.seedClient(false)
	_, err := sts.Jobs.CreateJob(sts.Ctx, &models.CreateCourierJobRequest{
		ClientID:        unverified.ID,
		Title:           "Sofa",
		PickupAddress:   "a",
		PickupDistrict:  "north",
		DropoffAddress:  "b",
		DropoffDistrict: "north",
		ParcelSize:      models.ParcelSizeLarge,
	})
	sts.ErrorIs(err, ErrNotVerified)

	owner := sts.seedClient(true)
	job := sts.seedJob(owner)
	driver := sts.seedDriver(true)

	_, err = sts.Requests.CreateDirectRequest(sts.Ctx, &models.CreateDirectRequestRequest{
		CourierJobID: job.ID,
		ClientID:     unverified.ID,
		DriverID:     driver.ID,
	})
	sts.ErrorIs(err, ErrNotVerified)

	other := sts.seedClient(true)
	_, err = sts.Requests.CreateDirectRequest(sts.Ctx, &models.CreateDirectRequestRequest{
		CourierJobID: job.ID,
		ClientID:     other.ID,
		DriverID:     driver.ID,
	})
	sts.ErrorIs(err, ErrNotJobOwner)
	sts.False(sts.reloadJob(job.ID).IsDirect)
}

func (sts *ServiceTestSuite) TestDuplicateDirectRequest() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	job := sts.seedJob(client)
	req := &models.CreateDirectRequestRequest{CourierJobID: job.ID, ClientID: client.ID, DriverID: driver.ID}

	_, err := sts.Requests.CreateDirectRequest(sts.Ctx, req)
	sts.Require().NoError(err)
	_, err = sts.Requests.CreateDirectRequest(sts.Ctx, req)
	sts.ErrorIs(err, ErrAlreadyInvited)

	invites, err := sts.Requests.ListDirectRequestsForDriver(sts.Ctx, driver.ID)
	sts.Require().NoError(err)
	sts.Len(invites, 1)
}

func (sts *ServiceTestSuite) TestWithdrawRequest() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	job := sts.seedJob(client)

	req, err := sts.Requests.ApplyForJob(sts.Ctx, job.ID, driver.ID)
	sts.Require().NoError(err)
	sts.Require().NoError(sts.Requests.WithdrawRequest(sts.Ctx, req.ID))

	mine, err := sts.Requests.ListRequestsForDriver(sts.Ctx, driver.ID)
	sts.Require().NoError(err)
	sts.Empty(mine)

	err = sts.Requests.WithdrawRequest(sts.Ctx, req.ID)
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))

	approved := sts.approvedActiveJob()
	requests, err := sts.Requests.ListRequestsForJob(sts.Ctx, approved.CourierJobID)
	sts.Require().NoError(err)
	sts.Require().Len(requests, 1)
	err = sts.Requests.WithdrawRequest(sts.Ctx, requests[0].ID)
	sts.ErrorIs(err, ErrAlreadyApproved)
}
