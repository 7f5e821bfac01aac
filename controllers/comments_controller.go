package controllers

import (
	"net/http"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/database"
	"github.com/Harrypapa1/patchwork-trades-backend/dto"
	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// threadFilter resolves the ?booking= / ?job= query params into a
// booking_comments filter, checking the caller is a party on the thread.
func threadFilter(c *gin.Context) (bson.M, *models.BookingComment, bool) {
	ctx := c.Request.Context()
	actorID, role := actorFrom(c)

	bookingID := c.Query("booking")
	jobID := c.Query("job")
	if (bookingID == "") == (jobID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide exactly one of booking or job"})
		return nil, nil, false
	}

	base := &models.BookingComment{
		UserID:   actorID,
		UserType: models.UserType(role),
	}
	if nameVal, ok := c.Get("name"); ok {
		base.UserName, _ = nameVal.(string)
	}

	if bookingID != "" {
		oid, err := bson.ObjectIDFromHex(bookingID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
			return nil, nil, false
		}
		var booking models.Booking
		if err := database.OpenCollection("bookings").FindOne(ctx, bson.M{"_id": oid}).Decode(&booking); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return nil, nil, false
		}
		if role != "ADMIN" && booking.CustomerID != actorID && booking.TradesmanID != actorID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
			return nil, nil, false
		}
		base.BookingID = bookingID
		return bson.M{"booking_id": bookingID}, base, true
	}

	oid, err := bson.ObjectIDFromHex(jobID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return nil, nil, false
	}
	var job models.ActiveJob
	if err := database.OpenCollection("active_jobs").FindOne(ctx, bson.M{"_id": oid}).Decode(&job); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return nil, nil, false
	}
	if role != "ADMIN" && job.CustomerID != actorID && job.TradesmanID != actorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your job"})
		return nil, nil, false
	}
	base.ActiveJobID = jobID
	return bson.M{"active_job_id": jobID}, base, true
}

// AddComment appends a manual comment from either party to a booking or job
// thread. System comments only ever come from state transitions.
func AddComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		_, base, ok := threadFilter(c)
		if !ok {
			return
		}
		if base.UserType != models.UserTypeCustomer && base.UserType != models.UserTypeTradesman {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the parties on a thread can comment"})
			return
		}

		var body dto.CreateCommentDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		base.ID = bson.NewObjectID()
		base.Comment = body.Comment
		base.Timestamp = time.Now().UTC()

		commentsCol := database.OpenCollection("booking_comments")
		if _, err := commentsCol.InsertOne(ctx, base); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add comment"})
			return
		}

		c.JSON(http.StatusCreated, base)
	}
}

// GetComments returns a thread's comments oldest first.
func GetComments() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		filter, _, ok := threadFilter(c)
		if !ok {
			return
		}

		findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

		commentsCol := database.OpenCollection("booking_comments")
		cursor, err := commentsCol.Find(ctx, filter, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		comments := make([]models.BookingComment, 0)
		for cursor.Next(ctx) {
			var cm models.BookingComment
			if err := cursor.Decode(&cm); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			comments = append(comments, cm)
		}
		if err := cursor.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": comments})
	}
}
