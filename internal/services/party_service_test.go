package services

import (
	"ship-swift/internal/apperrors"
	"ship-swift/internal/models"
)

func (sts *ServiceTestSuite) TestDriverLifecycle() {
	driver, err := sts.Drivers.CreateDriver(sts.Ctx, &models.CreateDriverRequest{
		ID:          "user_123",
		FirstName:   "Ann",
		LastName:    "Lee",
		Email:       "ann@example.com",
		Phone:       "+100",
		VehicleType: "bike",
	})
	sts.Require().NoError(err)
	sts.False(driver.IsVerified)

	_, err = sts.Drivers.CreateDriver(sts.Ctx, &models.CreateDriverRequest{ID: "user_123"})
	sts.ErrorIs(err, ErrAlreadyExists)

	phone := "+200"
	updated, err := sts.Drivers.UpdateDriver(sts.Ctx, driver.ID, &models.UpdateDriverRequest{Phone: &phone})
	sts.Require().NoError(err)
	sts.Equal("+200", updated.Phone)
	sts.Equal("Ann", updated.FirstName)

	verified, err := sts.Drivers.SetVerification(sts.Ctx, driver.ID, true)
	sts.Require().NoError(err)
	sts.True(verified.IsVerified)

	flag := true
	list, err := sts.Drivers.ListDrivers(sts.Ctx, &flag, 0, 0)
	sts.Require().NoError(err)
	sts.Len(list, 1)

	withDoc, err := sts.Drivers.SetDocument(sts.Ctx, driver.ID, models.DocumentVehiclePhoto, "http://cdn/van.jpg")
	sts.Require().NoError(err)
	sts.Equal("http://cdn/van.jpg", withDoc.VehiclePhotoURL)

	_, err = sts.Drivers.SetDocument(sts.Ctx, driver.ID, models.DocumentProof, "http://cdn/x.jpg")
	sts.Equal(apperrors.KindValidation, apperrors.KindOf(err))

	sts.Require().NoError(sts.Drivers.DeleteDriver(sts.Ctx, driver.ID))
	_, err = sts.Drivers.GetDriver(sts.Ctx, driver.ID)
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(sts.Drivers.DeleteDriver(sts.Ctx, driver.ID)))
}

func (sts *ServiceTestSuite) TestClientLifecycle() {
	client, err := sts.Clients.CreateClient(sts.Ctx, &models.CreateClientRequest{
		ID:        "user_456",
		FirstName: "Bo",
		LastName:  "Smith",
		Email:     "bo@example.com",
		Phone:     "+300",
	})
	sts.Require().NoError(err)

	_, err = sts.Clients.UpdateClient(sts.Ctx, "missing", &models.UpdateClientRequest{FirstName: &client.FirstName})
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))

	verified, err := sts.Clients.SetVerification(sts.Ctx, client.ID, true)
	sts.Require().NoError(err)
	sts.True(verified.IsVerified)

	photo, err := sts.Clients.SetProfilePhoto(sts.Ctx, client.ID, "http://cdn/me.jpg")
	sts.Require().NoError(err)
	sts.Equal("http://cdn/me.jpg", photo.ProfilePhotoURL)

	unverified := false
	list, err := sts.Clients.ListClients(sts.Ctx, &unverified, 0, 0)
	sts.Require().NoError(err)
	sts.Empty(list)
}

func (sts *ServiceTestSuite) TestDeletePartyWithOpenDelivery() {
	active := sts.approvedActiveJob()

	err := sts.Drivers.DeleteDriver(sts.Ctx, active.DriverID)
	sts.ErrorIs(err, ErrHasActiveJobs)
	sts.Equal(apperrors.KindConflict, apperrors.KindOf(err))
	err = sts.Clients.DeleteClient(sts.Ctx, active.ClientID)
	sts.ErrorIs(err, ErrHasActiveJobs)
	sts.Equal(apperrors.KindConflict, apperrors.KindOf(err))

	_, err = sts.Drivers.GetDriver(sts.Ctx, active.DriverID)
	sts.Require().NoError(err)
	_, err = sts.Clients.GetClient(sts.Ctx, active.ClientID)
	sts.Require().NoError(err)

	_, err = sts.Deliveries.SubmitProofOfDelivery(sts.Ctx, active.ID, "http://cdn/proof.jpg", nil)
	sts.Require().NoError(err)

	sts.Require().NoError(sts.Drivers.DeleteDriver(sts.Ctx, active.DriverID))
	sts.Require().NoError(sts.Clients.DeleteClient(sts.Ctx, active.ClientID))
}
