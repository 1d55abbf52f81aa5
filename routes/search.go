package routes

import (
	"net/http"

	"entrenai/internal/ai"
	"entrenai/internal/logger"
	"entrenai/internal/store"
	"entrenai/utils"

	"github.com/gin-gonic/gin"
)

type searchRequest struct {
	Query  string    `json:"query"`
	Vector []float32 `json:"vector"`
	TopK   int       `json:"top_k"`
}

// SearchCourse runs a similarity search over a course's chunks. Callers
// either supply a query string, embedded server-side, or a raw vector.
func SearchCourse(st *store.Store, provider ai.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := courseIDParam(c)
		if !ok {
			return
		}

		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}
		if req.Query == "" && len(req.Vector) == 0 {
			utils.RespondWithBadRequest(c, "Either query or vector is required", nil)
			return
		}

		queryVec := req.Vector
		if len(queryVec) == 0 {
			vec, err := provider.Embed(c.Request.Context(), req.Query)
			if err != nil {
				logger.Error("Query embedding failed", "course", courseID, "error", err)
				utils.RespondWithInternalError(c, "Failed to embed query", nil)
				return
			}
			queryVec = vec
		}

		results, err := st.Search(c.Request.Context(), courseID, queryVec, req.TopK)
		if err != nil {
			logger.Error("Search failed", "course", courseID, "error", err)
			utils.RespondWithInternalError(c, "Search failed", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"course_id": courseID,
			"results":   results,
		})
	}
}
