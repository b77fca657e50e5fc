package services

import (
	"ship-swift/internal/apperrors"
	"ship-swift/internal/models"
)

func (sts *ServiceTestSuite) TestUpdateStatusMirrorsIntoCourierJob() {
	active := sts.approvedActiveJob()

	change, err := sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusCollected)
	sts.Require().NoError(err)
	sts.True(change.Changed())
	sts.Equal(models.PackageStatusClaimed, change.Previous)
	sts.Equal(models.PackageStatusCollected, change.ActiveJob.JobStatus)

	stored, err := sts.Deliveries.GetActiveJob(sts.Ctx, active.ID)
	sts.Require().NoError(err)
	sts.Equal(models.PackageStatusCollected, stored.JobStatus)
	sts.Nil(stored.EndDate)
	sts.Equal(models.PackageStatusCollected, sts.reloadJob(active.CourierJobID).PackageStatus)
}

func (sts *ServiceTestSuite) TestUpdateStatusDeliveredLeavesCourierJob() {
	active := sts.approvedActiveJob()

	_, err := sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusCollected)
	sts.Require().NoError(err)
	_, err = sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusDelivered)
	sts.Require().NoError(err)

	stored, err := sts.Deliveries.GetActiveJob(sts.Ctx, active.ID)
	sts.Require().NoError(err)
	sts.Equal(models.PackageStatusDelivered, stored.JobStatus)
	sts.NotNil(stored.EndDate)
	sts.Equal(models.PackageStatusCollected, sts.reloadJob(active.CourierJobID).PackageStatus)
}

func (sts *ServiceTestSuite) TestUpdateStatusRejectsBackwardAndUnknown() {
	active := sts.approvedActiveJob()

	_, err := sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusCollected)
	sts.Require().NoError(err)

	_, err = sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusClaimed)
	sts.ErrorIs(err, ErrInvalidTransition)
	sts.Equal(apperrors.KindConflict, apperrors.KindOf(err))

	_, err = sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, "lost")
	sts.ErrorIs(err, ErrUnknownStatus)
	sts.Equal(apperrors.KindValidation, apperrors.KindOf(err))

	_, err = sts.Deliveries.UpdateStatus(sts.Ctx, "missing", models.PackageStatusCollected)
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}

func (sts *ServiceTestSuite) TestUpdateStatusSameStatusIsNoop() {
	active := sts.approvedActiveJob()

	change, err := sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusClaimed)
	sts.Require().NoError(err)
	sts.False(change.Changed())
	sts.Equal(models.PackageStatusClaimed, change.ActiveJob.JobStatus)
}

func (sts *ServiceTestSuite) TestUpdateStatusRollsBackWhenCourierJobMissing() {
	active := sts.approvedActiveJob()
	sts.Require().NoError(sts.DB.Where("id = ?", active.CourierJobID).Delete(&models.CourierJob{}).Error)

	_, err := sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusCollected)
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))

	stored, err := sts.Deliveries.GetActiveJob(sts.Ctx, active.ID)
	sts.Require().NoError(err)
	sts.Equal(models.PackageStatusClaimed, stored.JobStatus)
}

func (sts *ServiceTestSuite) TestSubmitProofOfDelivery() {
	active := sts.approvedActiveJob()

	delivered, err := sts.Deliveries.SubmitProofOfDelivery(sts.Ctx, active.ID, "http://cdn/proof.jpg", nil)
	sts.Require().NoError(err)
	sts.True(delivered.DriverConfirmed)
	sts.False(delivered.ClientConfirmed)
	sts.Require().NotNil(delivered.ActiveJob)
	sts.Equal(models.PackageStatusDelivered, delivered.ActiveJob.JobStatus)
	sts.NotNil(delivered.ActiveJob.EndDate)

	_, err = sts.Deliveries.SubmitProofOfDelivery(sts.Ctx, active.ID, "http://cdn/again.jpg", nil)
	sts.ErrorIs(err, ErrAlreadyDelivered)

	confirmed, err := sts.Deliveries.ConfirmDelivery(sts.Ctx, delivered.ID, models.PartyClient)
	sts.Require().NoError(err)
	sts.True(confirmed.ClientConfirmed)
	sts.True(confirmed.DriverConfirmed)
	sts.Equal(active.ID, confirmed.ActiveJob.ID)
}

func (sts *ServiceTestSuite) TestSubmitProofChecksLocation() {
	active := sts.approvedActiveJob()
	other := sts.approvedActiveJob()
	lat, lng := 41.31, 69.28

	foreign, err := sts.Locations.RecordLocation(sts.Ctx, other.ID, &models.RecordLocationRequest{DriverID: other.DriverID, Lat: &lat, Lng: &lng})
	sts.Require().NoError(err)
	unbound, err := sts.Locations.RecordLocation(sts.Ctx, "", &models.RecordLocationRequest{DriverID: active.DriverID, Lat: &lat, Lng: &lng})
	sts.Require().NoError(err)

	for _, id := range []string{"missing", foreign.ID, unbound.ID} {
		locationID := id
		_, err = sts.Deliveries.SubmitProofOfDelivery(sts.Ctx, active.ID, "http://cdn/proof.jpg", &locationID)
		sts.ErrorIs(err, ErrLocationMismatch, id)
		sts.Equal(apperrors.KindValidation, apperrors.KindOf(err), id)
	}

	var n int64
	sts.Require().NoError(sts.DB.Model(&models.DeliveredJob{}).Count(&n).Error)
	sts.Zero(n)
	stored, err := sts.Deliveries.GetActiveJob(sts.Ctx, active.ID)
	sts.Require().NoError(err)
	sts.Equal(models.PackageStatusClaimed, stored.JobStatus)

	own, err := sts.Locations.RecordLocation(sts.Ctx, active.ID, &models.RecordLocationRequest{DriverID: active.DriverID, Lat: &lat, Lng: &lng})
	sts.Require().NoError(err)
	delivered, err := sts.Deliveries.SubmitProofOfDelivery(sts.Ctx, active.ID, "http://cdn/proof.jpg", &own.ID)
	sts.Require().NoError(err)
	sts.Require().NotNil(delivered.LocationID)
	sts.Equal(own.ID, *delivered.LocationID)
}

func (sts *ServiceTestSuite) TestApplyStatusRejectsStaleSnapshot() {
	active := sts.approvedActiveJob()
	stale := *active

	_, err := sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusCollected)
	sts.Require().NoError(err)

	_, err = applyStatus(sts.DB.WithContext(sts.Ctx), &stale, models.PackageStatusDelivered)
	sts.ErrorIs(err, ErrInvalidTransition)
	sts.Equal(apperrors.KindConflict, apperrors.KindOf(err))

	stored, err := sts.Deliveries.GetActiveJob(sts.Ctx, active.ID)
	sts.Require().NoError(err)
	sts.Equal(models.PackageStatusCollected, stored.JobStatus)
	sts.Nil(stored.EndDate)
}

func (sts *ServiceTestSuite) TestSubmitProofRequiresActiveJob() {
	_, err := sts.Deliveries.SubmitProofOfDelivery(sts.Ctx, "missing", "http://cdn/proof.jpg", nil)
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))

	var n int64
	sts.Require().NoError(sts.DB.Model(&models.DeliveredJob{}).Count(&n).Error)
	sts.Zero(n)
}

func (sts *ServiceTestSuite) TestListActiveJobs() {
	active := sts.approvedActiveJob()
	sts.approvedActiveJob()

	byDriver, err := sts.Deliveries.ListActiveJobs(sts.Ctx, models.ActiveJobFilter{DriverID: active.DriverID})
	sts.Require().NoError(err)
	sts.Require().Len(byDriver, 1)
	sts.Equal(active.ID, byDriver[0].ID)

	all, err := sts.Deliveries.ListActiveJobs(sts.Ctx, models.ActiveJobFilter{})
	sts.Require().NoError(err)
	sts.Len(all, 2)
}
