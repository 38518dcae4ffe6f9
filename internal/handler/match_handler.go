package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"campusmatch/backend/internal/database"
	"campusmatch/backend/internal/matchmaking"
	"campusmatch/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// MatchResponse is a match with both parties' public views.
type MatchResponse struct {
	ID              uint                  `json:"id"`
	CreatedAt       time.Time             `json:"created_at"`
	Profile1        PublicProfileResponse `json:"profile1"`
	Profile2        PublicProfileResponse `json:"profile2"`
	ProducingGroups []uint                `json:"producing_group_ids,omitempty"`
}

func newMatchResponse(m models.Match) MatchResponse {
	groupIDs := make([]uint, 0, len(m.ProducingGroups))
	for _, g := range m.ProducingGroups {
		groupIDs = append(groupIDs, g.ID)
	}
	return MatchResponse{
		ID:              m.ID,
		CreatedAt:       m.CreatedAt,
		Profile1:        buildPublicProfileResponse(m.Profile1),
		Profile2:        buildPublicProfileResponse(m.Profile2),
		ProducingGroups: groupIDs,
	}
}

// endregion

// GetMyMatches godoc
// @Summary      List my matches
// @Description  Returns every match the authenticated profile is a party to, newest first.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   MatchResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /matches [get]
func GetMyMatches(c *gin.Context) {
	viewerID, _ := c.Get("profileID")

	ledger := matchmaking.NewMatchLedger(database.DB)
	matches, err := ledger.MatchesOf(c.Request.Context(), viewerID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch matches"})
		return
	}

	responses := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		responses = append(responses, newMatchResponse(m))
	}

	c.JSON(http.StatusOK, responses)
}

// DeleteMatch godoc
// @Summary      Unmatch
// @Description  Removes a match and the underlying mutual like edges. Only a party to the match may do this.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Match ID"
// @Success      200  {object}  map[string]string "{"message": "Match removed"}"
// @Failure      403  {object}  ErrorResponse "Requester is not a party to the match"
// @Failure      404  {object}  ErrorResponse "Match not found"
// @Router       /matches/{id} [delete]
func DeleteMatch(c *gin.Context) {
	viewerID, _ := c.Get("profileID")

	matchID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID"})
		return
	}

	resolver := matchmaking.NewResolver(database.DB)
	if err := resolver.Unmatch(c.Request.Context(), uint(matchID), viewerID.(uint)); err != nil {
		switch {
		case errors.Is(err, matchmaking.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		case errors.Is(err, matchmaking.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only a party to the match can remove it"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove match"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match removed"})
}

// AdminListMatches godoc
// @Summary      List all matches (admin)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page  query  int  false  "Page number" default(1)
// @Param        limit query  int  false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[MatchResponse]
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/matches [get]
func AdminListMatches(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Model(&models.Match{}).
		Preload("Profile1").
		Preload("Profile2").
		Preload("ProducingGroups").
		Order("created_at DESC, id DESC")

	result, err := Paginate[models.Match](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch matches"})
		return
	}

	responses := make([]MatchResponse, 0, len(result.Data))
	for _, m := range result.Data {
		responses = append(responses, newMatchResponse(m))
	}

	c.JSON(http.StatusOK, PaginatedResponse[MatchResponse]{
		Data: responses,
		Meta: result.Meta,
	})
}
