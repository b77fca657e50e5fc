package services

import (
	"ship-swift/internal/apperrors"
	"ship-swift/internal/models"
)

func (sts *ServiceTestSuite) TestGetOrCreateContactIsIdempotent() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)

	first, err := sts.Contacts.GetOrCreateContact(sts.Ctx, client.ID, driver.ID)
	sts.Require().NoError(err)
	second, err := sts.Contacts.GetOrCreateContact(sts.Ctx, client.ID, driver.ID)
	sts.Require().NoError(err)
	sts.Equal(first.ID, second.ID)

	forDriver, err := sts.Contacts.ListContacts(sts.Ctx, driver.ID)
	sts.Require().NoError(err)
	sts.Len(forDriver, 1)

	_, err = sts.Contacts.GetOrCreateContact(sts.Ctx, client.ID, "missing")
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}

func (sts *ServiceTestSuite) TestSendMessage() {
	client := sts.seedClient(true)
	driver := sts.seedDriver(true)
	contact, err := sts.Contacts.GetOrCreateContact(sts.Ctx, client.ID, driver.ID)
	sts.Require().NoError(err)

	_, err = sts.Contacts.SendMessage(sts.Ctx, contact.ID, client.ID, "  hi, when can you pick up?  ")
	sts.Require().NoError(err)
	_, err = sts.Contacts.SendMessage(sts.Ctx, contact.ID, driver.ID, "after lunch")
	sts.Require().NoError(err)

	_, err = sts.Contacts.SendMessage(sts.Ctx, contact.ID, "stranger", "hello")
	sts.ErrorIs(err, ErrNotParty)
	_, err = sts.Contacts.SendMessage(sts.Ctx, contact.ID, client.ID, "   ")
	sts.ErrorIs(err, ErrEmptyMessage)

	messages, err := sts.Contacts.ListMessages(sts.Ctx, contact.ID, 10)
	sts.Require().NoError(err)
	sts.Require().Len(messages, 2)
	sts.Equal("hi, when can you pick up?", messages[0].Content)
	sts.Equal(driver.ID, messages[1].SenderID)

	_, err = sts.Contacts.ListMessages(sts.Ctx, "missing", 10)
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}

func (sts *ServiceTestSuite) TestReviewsRequireDelivery() {
	active := sts.approvedActiveJob()
	req := &models.CreateReviewRequest{ActiveJobID: active.ID, Rating: 4, Comment: "on time"}

	_, err := sts.Reviews.ReviewDriver(sts.Ctx, req)
	sts.ErrorIs(err, ErrNotDelivered)

	_, err = sts.Deliveries.UpdateStatus(sts.Ctx, active.ID, models.PackageStatusDelivered)
	sts.Require().NoError(err)

	_, err = sts.Reviews.ReviewDriver(sts.Ctx, &models.CreateReviewRequest{ActiveJobID: active.ID, Rating: 6})
	sts.ErrorIs(err, ErrInvalidRating)

	review, err := sts.Reviews.ReviewDriver(sts.Ctx, req)
	sts.Require().NoError(err)
	sts.Equal(active.DriverID, review.DriverID)

	_, err = sts.Reviews.ReviewDriver(sts.Ctx, req)
	sts.ErrorIs(err, ErrAlreadyReviewed)

	_, err = sts.Reviews.ReviewClient(sts.Ctx, &models.CreateReviewRequest{ActiveJobID: active.ID, Rating: 2})
	sts.Require().NoError(err)

	rating, err := sts.Reviews.DriverRating(sts.Ctx, active.DriverID)
	sts.Require().NoError(err)
	sts.Equal(int64(1), rating.Count)
	sts.InDelta(4.0, rating.Average, 0.001)

	clientRating, err := sts.Reviews.ClientRating(sts.Ctx, active.ClientID)
	sts.Require().NoError(err)
	sts.InDelta(2.0, clientRating.Average, 0.001)

	empty, err := sts.Reviews.DriverRating(sts.Ctx, "nobody")
	sts.Require().NoError(err)
	sts.Zero(empty.Count)
	sts.Zero(empty.Average)

	reviews, err := sts.Reviews.ListDriverReviews(sts.Ctx, active.DriverID)
	sts.Require().NoError(err)
	sts.Len(reviews, 1)
}

func (sts *ServiceTestSuite) TestRecordLocation() {
	active := sts.approvedActiveJob()
	lat, lng := 51.5, -0.12

	loc, err := sts.Locations.RecordLocation(sts.Ctx, active.ID, &models.RecordLocationRequest{
		DriverID: active.DriverID,
		Lat:      &lat,
		Lng:      &lng,
	})
	sts.Require().NoError(err)
	sts.Require().NotNil(loc.CourierJobID)
	sts.Equal(active.CourierJobID, *loc.CourierJobID)

	latest, err := sts.Locations.LatestLocation(sts.Ctx, active.ID)
	sts.Require().NoError(err)
	sts.Equal(loc.ID, latest.ID)

	_, err = sts.Locations.RecordLocation(sts.Ctx, active.ID, &models.RecordLocationRequest{
		DriverID: "someone-else",
		Lat:      &lat,
		Lng:      &lng,
	})
	sts.ErrorIs(err, ErrNotAssigned)

	bad := 123.0
	_, err = sts.Locations.RecordLocation(sts.Ctx, "", &models.RecordLocationRequest{
		DriverID: active.DriverID,
		Lat:      &bad,
		Lng:      &lng,
	})
	sts.Equal(apperrors.KindValidation, apperrors.KindOf(err))

	route, err := sts.Locations.ListLocations(sts.Ctx, active.ID, 0)
	sts.Require().NoError(err)
	sts.Len(route, 1)

	_, err = sts.Locations.LatestLocation(sts.Ctx, "missing")
	sts.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}
