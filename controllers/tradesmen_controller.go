package controllers

import (
	"net/http"

	"github.com/Harrypapa1/patchwork-trades-backend/database"
	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetTradesmen is the public directory listing. Supports trade and postcode
// filters plus page/limit pagination.
func GetTradesmen() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		maxLimit, defaultLimit := utils.GetDefaultQueryLimits()
		limit := utils.ParseIntDefault(c.Query("limit"), defaultLimit)
		if limit > maxLimit {
			limit = maxLimit
		}
		page := utils.ParseIntDefault(c.Query("page"), 1)
		if page < 1 {
			page = 1
		}

		filter := bson.M{}
		if trade := c.Query("trade"); trade != "" {
			filter["trade"] = trade
		}
		if postcode := c.Query("postcode"); postcode != "" {
			filter["postcode"] = bson.M{"$regex": "^" + postcode, "$options": "i"}
		}

		findOpts := options.Find().
			SetSort(bson.D{{Key: "average_rating", Value: -1}, {Key: "completed_jobs_count", Value: -1}}).
			SetSkip(int64((page - 1) * limit)).
			SetLimit(int64(limit))

		tradesmenCol := database.OpenCollection("tradesmen")
		cursor, err := tradesmenCol.Find(ctx, filter, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		tradesmen := make([]models.Tradesman, 0)
		for cursor.Next(ctx) {
			var t models.Tradesman
			if err := cursor.Decode(&t); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			tradesmen = append(tradesmen, t)
		}
		if err := cursor.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		total, err := tradesmenCol.CountDocuments(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": tradesmen,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// GetTradesmanBySlug is the public profile page, reviews included.
func GetTradesmanBySlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		slug := c.Param("slug")

		var tradesman models.Tradesman
		err := database.OpenCollection("tradesmen").FindOne(ctx, bson.M{"slug": slug}).Decode(&tradesman)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "tradesman not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, tradesman)
	}
}
