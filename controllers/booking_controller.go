package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Harrypapa1/patchwork-trades-backend/database"
	"github.com/Harrypapa1/patchwork-trades-backend/dto"
	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"github.com/Harrypapa1/patchwork-trades-backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CreateBooking accepts multipart form data: a "data" JSON field and up to 8
// optional "photos" files which are uploaded to GCS before the quote request
// is created.
func CreateBooking(bs *services.BookingService, v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actorID, role := actorFrom(c)
		if role != string(models.RoleCustomer) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only customers can request quotes"})
			return
		}

		dataStr := c.PostForm("data")
		if dataStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing data"})
			return
		}
		var body dto.CreateBookingDTO
		if err := json.Unmarshal([]byte(dataStr), &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data json", "details": err.Error()})
			return
		}
		if strings.TrimSpace(body.TradesmanID) == "" || strings.TrimSpace(body.JobTitle) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tradesmanId and jobTitle are required"})
			return
		}

		var photoURLs []string
		if form, err := c.MultipartForm(); err == nil {
			files := form.File["photos"]
			if len(files) > 0 {
				for _, fh := range files {
					if _, err := v.ValidateFile(fh); err != nil {
						c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
						return
					}
				}
				gcsClient, bucket, err := utils.NewGCSClient(c)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to init storage client"})
					return
				}
				photoURLs, err = utils.UploadBookingPhotosToGCS(ctx, gcsClient, bucket, actorID, files)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "photo upload failed", "details": err.Error()})
					return
				}
			}
		}

		urgency := models.UrgencyTier(body.Urgency)
		if urgency == "" {
			urgency = models.UrgencyStandard
		}

		booking, err := bs.RequestQuote(ctx, services.RequestQuoteInput{
			CustomerID:     actorID,
			TradesmanID:    body.TradesmanID,
			JobTitle:       body.JobTitle,
			JobDescription: body.JobDescription,
			Urgency:        urgency,
			RequestedDates: body.RequestedDates,
			JobPhotos:      photoURLs,
		})
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, booking)
	}
}

func OfferQuote(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, _ := actorFrom(c)

		var body dto.OfferQuoteDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		booking, err := bs.OfferQuote(c.Request.Context(), c.Param("id"), actorID, body.Quote)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

func CounterOffer(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, _ := actorFrom(c)

		var body dto.CounterOfferDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		booking, err := bs.CounterOffer(c.Request.Context(), c.Param("id"), actorID, body.Amount, body.Reasoning)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

func AcceptQuote(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, role := actorFrom(c)

		booking, err := bs.AcceptQuote(c.Request.Context(), c.Param("id"), actorID, models.UserType(role))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

func RejectQuote(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, role := actorFrom(c)

		booking, err := bs.RejectQuote(c.Request.Context(), c.Param("id"), actorID, models.UserType(role))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

func GetBooking() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actorID, role := actorFrom(c)

		oid, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
			return
		}

		var booking models.Booking
		bookingsCol := database.OpenCollection("bookings")
		if err := bookingsCol.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}

		if role != "ADMIN" && booking.CustomerID != actorID && booking.TradesmanID != actorID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
			return
		}

		c.JSON(http.StatusOK, booking)
	}
}

// GetMyBookings lists the caller's bookings, newest first, optionally
// filtered by status.
func GetMyBookings() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actorID, role := actorFrom(c)

		maxLimit, defaultLimit := utils.GetDefaultQueryLimits()
		page := utils.ParseIntDefault(c.Query("page"), 1)
		limit := utils.ParseIntDefault(c.Query("limit"), defaultLimit)
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = defaultLimit
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		filter := bson.M{}
		switch role {
		case string(models.RoleCustomer):
			filter["customer_id"] = actorID
		case string(models.RoleTradesman):
			filter["tradesman_id"] = actorID
		default:
			c.JSON(http.StatusForbidden, gin.H{"error": "no bookings for this account type"})
			return
		}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		findOpts := options.Find().
			SetSkip(int64((page - 1) * limit)).
			SetLimit(int64(limit)).
			SetSort(bson.D{{Key: "created_at", Value: -1}})

		bookingsCol := database.OpenCollection("bookings")
		cursor, err := bookingsCol.Find(ctx, filter, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		bookings := make([]models.Booking, 0)
		for cursor.Next(ctx) {
			var b models.Booking
			if err := cursor.Decode(&b); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			bookings = append(bookings, b)
		}
		if err := cursor.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": bookings, "page": page, "limit": limit})
	}
}
