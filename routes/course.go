package routes

import (
	"net/http"
	"strconv"

	"entrenai/internal/lms"
	"entrenai/internal/logger"
	"entrenai/internal/store"
	"entrenai/services"
	"entrenai/utils"

	"github.com/gin-gonic/gin"
)

func courseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("courseID"), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithBadRequest(c, "Invalid course ID", nil)
		return 0, false
	}
	return id, true
}

// RefreshCourse scans a course's files and queues processing tasks
// for everything new or modified.
func RefreshCourse(refresher *services.CourseRefresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := courseIDParam(c)
		if !ok {
			return
		}

		result, err := refresher.Refresh(c.Request.Context(), courseID)
		if err != nil {
			logger.Error("Course refresh failed", "course", courseID, "error", err)
			utils.RespondWithInternalError(c, "Failed to refresh course files", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"course_id": result.CourseID,
			"queued":    result.Queued,
			"unchanged": result.Unchanged,
		})
	}
}

// ListCourseFiles lists a course's files with their index status.
func ListCourseFiles(lmsClient *lms.MoodleClient, detector *services.ChangeDetector) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := courseIDParam(c)
		if !ok {
			return
		}

		files, err := lmsClient.ListFiles(c.Request.Context(), courseID)
		if err != nil {
			logger.Error("File listing failed", "course", courseID, "error", err)
			utils.RespondWithInternalError(c, "Failed to list course files", nil)
			return
		}

		type fileEntry struct {
			Filename     string `json:"filename"`
			TimeModified int64  `json:"time_modified"`
			IndexStatus  string `json:"index_status"`
		}

		entries := make([]fileEntry, 0, len(files))
		for _, f := range files {
			status, err := detector.Classify(c.Request.Context(), courseID, f.Filename, f.TimeModified)
			if err != nil {
				logger.Error("File status check failed", "course", courseID, "file", f.Filename, "error", err)
				utils.RespondWithInternalError(c, "Failed to determine file status", nil)
				return
			}
			entry := fileEntry{Filename: f.Filename, TimeModified: f.TimeModified}
			switch status {
			case services.FileUnchanged:
				entry.IndexStatus = "indexed"
			case services.FileModified:
				entry.IndexStatus = "stale"
			default:
				entry.IndexStatus = "not_indexed"
			}
			entries = append(entries, entry)
		}

		c.JSON(http.StatusOK, gin.H{
			"course_id": courseID,
			"files":     entries,
		})
	}
}

// DeleteCourseFile removes a file's chunks and tracker record.
func DeleteCourseFile(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := courseIDParam(c)
		if !ok {
			return
		}

		filename := c.Param("filename")
		if filename == "" {
			utils.RespondWithBadRequest(c, "Filename required", nil)
			return
		}

		if err := st.DeleteFile(c.Request.Context(), courseID, filename); err != nil {
			logger.Error("File deletion failed", "course", courseID, "file", filename, "error", err)
			utils.RespondWithInternalError(c, "Failed to delete file", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"course_id": courseID,
			"filename":  filename,
			"deleted":   true,
		})
	}
}
