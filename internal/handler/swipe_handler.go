package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"campusmatch/backend/internal/config"
	"campusmatch/backend/internal/database"
	"campusmatch/backend/internal/feed"
	"campusmatch/backend/internal/matchmaking"
	"campusmatch/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// SwipeGroupResponse is a group card in the feed.
type SwipeGroupResponse struct {
	ID           uint                    `json:"id"`
	Gender       models.Gender           `json:"gender"`
	Age          int                     `json:"age"`
	TotalMembers int                     `json:"total_members"`
	Members      []PublicProfileResponse `json:"members"`
}

// SwipeFeedResponse is the filtered candidate pool for one viewer.
type SwipeFeedResponse struct {
	Profiles     []PublicProfileResponse `json:"profiles"`
	Groups       []SwipeGroupResponse    `json:"groups"`
	ProfileCount int                     `json:"profile_count"`
	GroupCount   int                     `json:"group_count"`
	Count        int                     `json:"count"`
}

// LikeResponse is the classified outcome of a like action.
type LikeResponse struct {
	Details    matchmaking.Outcome `json:"details"`
	GroupMatch matchmaking.Origin  `json:"group_match,omitempty"`
	MatchData  *MatchResponse      `json:"match_data,omitempty"`
}

func newSwipeGroupResponse(g models.Group) SwipeGroupResponse {
	members := make([]PublicProfileResponse, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, buildPublicProfileResponse(m))
	}
	return SwipeGroupResponse{
		ID:           g.ID,
		Gender:       g.Gender,
		Age:          g.Age,
		TotalMembers: g.TotalMembers,
		Members:      members,
	}
}

// endregion

// GetSwipeFeed godoc
// @Summary      Get the swipe feed
// @Description  Returns the filtered candidate profiles and groups the viewer is allowed to see. The viewer must have a resolved age and location.
// @Tags         swipe
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SwipeFeedResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      412  {object}  ErrorResponse "Profile missing age or location"
// @Router       /swipe [get]
func GetSwipeFeed(c *gin.Context) {
	viewerID, _ := c.Get("profileID")
	ctx := c.Request.Context()

	var viewer models.Profile
	if err := database.DB.First(&viewer, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	if err := matchmaking.EnsureReadyForFeed(&viewer); err != nil {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "Profile must have a birthdate and location before swiping"})
		return
	}

	maxKm := 50.0
	if config.AppConfig != nil && config.AppConfig.MaxDistanceKm > 0 {
		maxKm = config.AppConfig.MaxDistanceKm
	}

	// Candidate pool: completed, active profiles other than the viewer.
	var candidates []models.Profile
	if err := database.DB.
		Where("has_account = ? AND active = ? AND id <> ?", true, true, viewer.ID).
		Find(&candidates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load candidates"})
		return
	}

	var groups []models.Group
	if err := database.DB.
		Preload("Owner").
		Preload("Members").
		Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load groups"})
		return
	}

	// Narrow by geography before the eligibility filter. A group sits where
	// its owner sits.
	nearby := candidates[:0]
	for _, p := range candidates {
		if feed.WithinDistance(&viewer, p.Latitude, p.Longitude, maxKm) {
			nearby = append(nearby, p)
		}
	}
	nearbyGroups := groups[:0]
	for _, g := range groups {
		if feed.WithinDistance(&viewer, g.Owner.Latitude, g.Owner.Longitude, maxKm) {
			nearbyGroups = append(nearbyGroups, g)
		}
	}

	rel, err := feed.LoadRelations(ctx, database.DB, &viewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load relations"})
		return
	}

	eligibleProfiles, eligibleGroups := feed.Filter(&viewer, nearby, nearbyGroups, rel, time.Now())

	profileResponses := make([]PublicProfileResponse, 0, len(eligibleProfiles))
	for _, p := range eligibleProfiles {
		profileResponses = append(profileResponses, buildPublicProfileResponse(p))
	}
	groupResponses := make([]SwipeGroupResponse, 0, len(eligibleGroups))
	for _, g := range eligibleGroups {
		groupResponses = append(groupResponses, newSwipeGroupResponse(g))
	}

	c.JSON(http.StatusOK, SwipeFeedResponse{
		Profiles:     profileResponses,
		Groups:       groupResponses,
		ProfileCount: len(profileResponses),
		GroupCount:   len(groupResponses),
		Count:        len(profileResponses) + len(groupResponses),
	})
}

// LikeProfile godoc
// @Summary      Like a profile
// @Description  Records the like and resolves it: plain like, new match, re-surfaced match, or already matched.
// @Tags         swipe
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target Profile ID"
// @Success      200  {object}  LikeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target no longer exists"
// @Router       /profiles/{id}/like [post]
func LikeProfile(c *gin.Context) {
	resolveLike(c, matchmaking.TargetProfile)
}

// LikeGroup godoc
// @Summary      Like a group
// @Description  Records the like toward the group and resolves it against the group's members.
// @Tags         swipe
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target Group ID"
// @Success      200  {object}  LikeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target no longer exists"
// @Router       /groups/{id}/like [post]
func LikeGroup(c *gin.Context) {
	resolveLike(c, matchmaking.TargetGroup)
}

func resolveLike(c *gin.Context, kind matchmaking.TargetKind) {
	likerID, _ := c.Get("profileID")
	ctx := c.Request.Context()

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target ID"})
		return
	}
	if kind == matchmaking.TargetProfile && likerID.(uint) == uint(targetID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot like yourself"})
		return
	}

	resolver := matchmaking.NewResolver(database.DB)
	result, err := resolver.Resolve(ctx, likerID.(uint), matchmaking.Target{Kind: kind, ID: uint(targetID)})
	if err != nil {
		if errors.Is(err, matchmaking.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Target no longer exists"})
			return
		}
		if errors.Is(err, matchmaking.ErrPreconditionNotMet) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot like your own group"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve like"})
		return
	}

	// Only a freshly inserted edge moves the counter; repeated likes are
	// idempotent all the way down.
	if Cache != nil && kind == matchmaking.TargetProfile && result.LikeRecorded {
		Cache.IncrLikeCount(ctx, uint(targetID))
	}

	response := LikeResponse{Details: result.Outcome, GroupMatch: result.Origin}
	if result.Match != nil {
		ledger := matchmaking.NewMatchLedger(database.DB)
		if full, err := ledger.MatchByID(ctx, result.Match.ID); err == nil {
			mr := newMatchResponse(*full)
			response.MatchData = &mr
		}
	}

	c.JSON(http.StatusOK, response)
}

// UnlikeProfile godoc
// @Summary      Remove a like on a profile
// @Description  Removes the like edge only; existing matches are untouched.
// @Tags         swipe
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target Profile ID"
// @Success      200  {object}  map[string]string "{"message": "Like removed"}"
// @Failure      404  {object}  ErrorResponse "Like not found"
// @Router       /profiles/{id}/unlike [post]
func UnlikeProfile(c *gin.Context) {
	likerID, _ := c.Get("profileID")
	ctx := c.Request.Context()

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target ID"})
		return
	}

	graph := matchmaking.NewIdentityGraph(database.DB)
	removed, err := graph.RemoveProfileLike(ctx, likerID.(uint), uint(targetID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove like"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Like not found"})
		return
	}

	if Cache != nil {
		Cache.DecrLikeCount(ctx, uint(targetID))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Like removed"})
}

// UnlikeGroup godoc
// @Summary      Remove a like on a group
// @Tags         swipe
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target Group ID"
// @Success      200  {object}  map[string]string "{"message": "Like removed"}"
// @Failure      404  {object}  ErrorResponse "Like not found"
// @Router       /groups/{id}/unlike [post]
func UnlikeGroup(c *gin.Context) {
	likerID, _ := c.Get("profileID")
	ctx := c.Request.Context()

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target ID"})
		return
	}

	graph := matchmaking.NewIdentityGraph(database.DB)
	removed, err := graph.RemoveGroupLike(ctx, likerID.(uint), uint(targetID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove like"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Like not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Like removed"})
}
