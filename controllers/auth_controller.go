package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/database"
	"github.com/Harrypapa1/patchwork-trades-backend/dto"
	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Register creates a credentials document plus a customer or tradesman
// profile under the same id.
func Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.RegisterDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		email := strings.ToLower(strings.TrimSpace(body.Email))
		name := strings.TrimSpace(body.Name)

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		now := time.Now().UTC()
		id := bson.NewObjectID()

		user := models.User{
			ID:           id,
			Email:        email,
			PasswordHash: hash,
			Name:         name,
			Role:         models.Role(body.UserType),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		usersCol := database.OpenCollection("users")
		if _, err := usersCol.InsertOne(ctx, user); err != nil {
			if utils.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
			return
		}

		if body.UserType == string(models.UserTypeTradesman) {
			slug := utils.GenerateSlug(name)
			tradesmenCol := database.OpenCollection("tradesmen")
			if err := tradesmenCol.FindOne(ctx, bson.M{"slug": slug}).Err(); err == nil {
				slug = slug + "-" + id.Hex()[18:]
			}
			tradesman := models.Tradesman{
				ID:         id,
				Name:       name,
				Email:      email,
				Trade:      strings.TrimSpace(body.Trade),
				Slug:       slug,
				Bio:        strings.TrimSpace(body.Bio),
				HourlyRate: body.HourlyRate,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if _, err := tradesmenCol.InsertOne(ctx, tradesman); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
				return
			}
		} else {
			customer := models.Customer{
				ID:        id,
				Name:      name,
				Email:     email,
				Phone:     strings.TrimSpace(body.Phone),
				Postcode:  strings.TrimSpace(body.Postcode),
				CreatedAt: now,
				UpdatedAt: now,
			}
			customersCol := database.OpenCollection("customers")
			if _, err := customersCol.InsertOne(ctx, customer); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
				return
			}
		}

		c.JSON(http.StatusCreated, gin.H{"id": id.Hex()})
	}
}

func Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(c, bson.M{"email": strings.ToLower(strings.TrimSpace(body.Email))}).Decode(&user); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		accessToken, _ := utils.GenerateAccessToken(user.ID.Hex(), user.Email, user.Name, string(user.Role), utils.AccessTTL())
		refreshToken, _ := utils.GenerateRefreshToken(user.ID.Hex())

		refreshTokensCol := database.OpenCollection("refresh_tokens")
		result, err := refreshTokensCol.InsertOne(c, models.RefreshToken{
			UserID:     user.ID,
			TokenHash:  refreshToken,
			ExpiresAt:  time.Now().Add(utils.RefreshTTL()),
			CreatedAt:  time.Now(),
			RevokedAt:  nil,
			ReplacedBy: nil,
		})
		if result.InsertedID == nil || err != nil {
			log.Print("Connection failed ", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "connection failed"})
			return
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     "refreshToken",
			Value:    refreshToken,
			Path:     "/auth/refresh",
			MaxAge:   int(utils.RefreshTTL().Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode, // for cross-site
		})
		c.JSON(http.StatusOK, gin.H{
			"access_token": accessToken,
			"role":         user.Role,
		})
	}
}

func Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		refreshCol := database.OpenCollection("refresh_tokens")

		hash, err := c.Cookie("refreshToken")
		if err != nil || hash == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
			return
		}
		var rt models.RefreshToken
		err = refreshCol.FindOne(ctx, bson.M{
			"tokenHash": hash,
			"revokedAt": bson.M{"$exists": false},
			"expiresAt": bson.M{"$gt": time.Now().UTC()},
		}).Decode(&rt)

		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		var user models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": rt.UserID}).Decode(&user); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		accessTTL := utils.AccessTTL()
		refreshTTL := utils.RefreshTTL()

		// Rotate refresh token
		newHash, err := utils.GenerateRefreshToken(user.ID.Hex())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
			return
		}

		now := time.Now().UTC()

		_, err = refreshCol.UpdateByID(ctx, rt.ID, bson.M{
			"$set": bson.M{
				"revokedAt":  now,
				"replacedBy": newHash,
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke refresh token"})
			return
		}

		// Insert new token
		_, err = refreshCol.InsertOne(ctx, models.RefreshToken{
			UserID:    user.ID,
			TokenHash: newHash,
			ExpiresAt: now.Add(refreshTTL),
			CreatedAt: now,
		})

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store refresh token"})
			return
		}

		accessToken, err := utils.GenerateAccessToken(user.ID.Hex(), user.Email, user.Name, string(user.Role), accessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access token"})
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     "refreshToken",
			Value:    newHash,
			Path:     "/auth/refresh",
			MaxAge:   int(refreshTTL.Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
		})

		c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
	}
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		refreshCol := database.OpenCollection("refresh_tokens")

		hash, _ := c.Cookie("refreshToken")
		utils.ClearRefreshCookie(c)

		// best effort revoke
		if hash != "" {
			now := time.Now().UTC()
			_, _ = refreshCol.UpdateOne(ctx, bson.M{
				"tokenHash": hash,
				"revokedAt": bson.M{"$exists": false},
			}, bson.M{
				"$set": bson.M{"revokedAt": now},
			})
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
