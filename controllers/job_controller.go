package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/database"
	"github.com/Harrypapa1/patchwork-trades-backend/dto"
	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"github.com/Harrypapa1/patchwork-trades-backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func UpdateJobStatus(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, role := actorFrom(c)

		var body dto.UpdateJobStatusDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		next := models.JobStatus(body.Status)
		if next == models.JobStatusCancelled {
			c.JSON(http.StatusBadRequest, gin.H{"error": "use the cancel endpoint to cancel a job"})
			return
		}

		job, err := js.AdvanceJobStatus(c.Request.Context(), c.Param("id"), next, actorID, models.UserType(role))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

func CancelJob(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, role := actorFrom(c)

		job, err := js.CancelJob(c.Request.Context(), c.Param("id"), actorID, models.UserType(role))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

func SubmitReview(js *services.JobService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, _ := actorFrom(c)

		var body dto.SubmitReviewDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		job, err := js.SubmitReview(c.Request.Context(), c.Param("id"), actorID, body.Rating, body.Comment)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, job)
	}
}

// UploadCompletionPhotos lets the tradesman attach completion photos to a job
// that is in progress or waiting for approval. Photos go to R2.
func UploadCompletionPhotos(v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actorID, role := actorFrom(c)

		oid, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
			return
		}

		jobsCol := database.OpenCollection("active_jobs")
		var job models.ActiveJob
		if err := jobsCol.FindOne(ctx, bson.M{"_id": oid}).Decode(&job); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		if role != string(models.RoleTradesman) || job.TradesmanID != actorID {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the tradesman on this job can add completion photos"})
			return
		}
		if job.Status != models.JobStatusInProgress && job.Status != models.JobStatusPendingApproval {
			c.JSON(http.StatusBadRequest, gin.H{"error": "completion photos can only be added to work in progress"})
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
			return
		}
		files := form.File["photos"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no photos supplied"})
			return
		}
		for _, fh := range files {
			if _, err := v.ValidateFile(fh); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		r2, _, err := utils.NewCloudClient(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to init storage client"})
			return
		}

		urls, err := utils.UploadCompletionPhotosToCloud(ctx, r2, job.ID.Hex(), files)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "photo upload failed", "details": err.Error()})
			return
		}

		now := time.Now().UTC()
		res, err := jobsCol.UpdateByID(ctx, oid, bson.M{
			"$push": bson.M{"completion_photos": bson.M{"$each": urls}},
			"$set":  bson.M{"updated_at": now},
		})
		if err != nil || res.MatchedCount == 0 {
			// The photos never made it onto the job, clean up the orphans.
			names := make([]string, len(urls))
			for i, u := range urls {
				names[i] = utils.ObjectNameFromURL(u)
			}
			if delErr := utils.DeleteCloudObjects(ctx, r2, names); delErr != nil {
				log.Printf("orphaned completion photos for job %s: %v", job.ID.Hex(), delErr)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to attach photos"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"photos": urls})
	}
}

func GetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actorID, role := actorFrom(c)

		oid, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
			return
		}

		var job models.ActiveJob
		jobsCol := database.OpenCollection("active_jobs")
		if err := jobsCol.FindOne(ctx, bson.M{"_id": oid}).Decode(&job); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}

		if role != "ADMIN" && job.CustomerID != actorID && job.TradesmanID != actorID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your job"})
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// GetMyJobs lists the caller's active jobs, newest first, optionally filtered
// by status.
func GetMyJobs() gin.HandlerFunc {
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
			c.JSON(http.StatusForbidden, gin.H{"error": "no jobs for this account type"})
			return
		}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		findOpts := options.Find().
			SetSkip(int64((page - 1) * limit)).
			SetLimit(int64(limit)).
			SetSort(bson.D{{Key: "created_at", Value: -1}})

		jobsCol := database.OpenCollection("active_jobs")
		cursor, err := jobsCol.Find(ctx, filter, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		jobs := make([]models.ActiveJob, 0)
		for cursor.Next(ctx) {
			var j models.ActiveJob
			if err := cursor.Decode(&j); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			jobs = append(jobs, j)
		}
		if err := cursor.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": jobs, "page": page, "limit": limit})
	}
}
