package routes

import (
	"errors"
	"net/http"

	"entrenai/internal/logger"
	"entrenai/internal/queue"
	"entrenai/utils"

	"github.com/gin-gonic/gin"
)

// GetTaskStatus reports the state of an ingestion task.
func GetTaskStatus(reader *queue.StatusReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("taskID")
		if taskID == "" {
			utils.RespondWithBadRequest(c, "Task ID required", nil)
			return
		}

		status, err := reader.GetTaskStatus(c.Request.Context(), taskID)
		if err != nil {
			if errors.Is(err, queue.ErrTaskNotFound) {
				utils.RespondWithNotFound(c, "Task not found")
				return
			}
			logger.Error("Task status lookup failed", "task", taskID, "error", err)
			utils.RespondWithInternalError(c, "Failed to retrieve task status", nil)
			return
		}

		c.JSON(http.StatusOK, status)
	}
}
