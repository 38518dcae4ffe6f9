package handler

import (
	"net/http"
	"strconv"
	"time"

	"campusmatch/backend/internal/cache"
	"campusmatch/backend/internal/database"
	"campusmatch/backend/internal/models"
	"campusmatch/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

// Cache is the shared redis handle for liked-you counters. Wired in main;
// handlers degrade to DB-only when it is nil.
var Cache *cache.RedisCache

// region --- DTOs ---

// RegisterInput defines the structure for profile registration.
type RegisterInput struct {
	Email     string `json:"email" binding:"required,email" example:"test@example.com"`
	Firstname string `json:"firstname" binding:"required" example:"Alex"`
	Lastname  string `json:"lastname" binding:"required" example:"Doe"`
	Password  string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for profile login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// UpdateProfileInput defines the onboarding/update payload.
type UpdateProfileInput struct {
	Gender      models.Gender `json:"gender" binding:"omitempty,oneof=male female non-binary"`
	ShowMe      models.ShowMe `json:"show_me" binding:"omitempty,oneof=male female any"`
	Birthdate   string        `json:"birthdate" example:"2002-04-17"` // YYYY-MM-DD
	Latitude    *float64      `json:"latitude"`
	Longitude   *float64      `json:"longitude"`
	University  string        `json:"university"`
	Description string        `json:"description"`
}

// PublicProfileResponse defines the structure for a profile's public view.
type PublicProfileResponse struct {
	ID          uint          `json:"id" example:"1"`
	Firstname   string        `json:"firstname"`
	Lastname    string        `json:"lastname"`
	Age         int           `json:"age"`
	Gender      models.Gender `json:"gender"`
	University  string        `json:"university,omitempty"`
	Description string        `json:"description,omitempty"`
	InGroup     bool          `json:"in_group"`
}

// PrivateProfileResponse defines the authenticated profile's own view.
type PrivateProfileResponse struct {
	ID          uint          `json:"id"`
	Email       string        `json:"email"`
	Firstname   string        `json:"firstname"`
	Lastname    string        `json:"lastname"`
	Age         int           `json:"age"`
	Gender      models.Gender `json:"gender"`
	ShowMe      models.ShowMe `json:"show_me"`
	University  string        `json:"university,omitempty"`
	Description string        `json:"description,omitempty"`
	HasAccount  bool          `json:"has_account"`
	GroupID     *uint         `json:"group_id,omitempty"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

func buildPublicProfileResponse(p models.Profile) PublicProfileResponse {
	return PublicProfileResponse{
		ID:          p.ID,
		Firstname:   p.Firstname,
		Lastname:    p.Lastname,
		Age:         p.Age(time.Now()),
		Gender:      p.Gender,
		University:  p.University,
		Description: p.Description,
		InGroup:     p.CurrentGroupID != nil,
	}
}

func buildPrivateProfileResponse(p models.Profile) PrivateProfileResponse {
	return PrivateProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		Firstname:   p.Firstname,
		Lastname:    p.Lastname,
		Age:         p.Age(time.Now()),
		Gender:      p.Gender,
		ShowMe:      p.ShowMe,
		University:  p.University,
		Description: p.Description,
		HasAccount:  p.HasAccount,
		GroupID:     p.CurrentGroupID,
	}
}

// endregion

// region --- Auth Handlers ---

// RegisterProfile godoc
// @Summary      Register a new profile
// @Description  Creates a new profile and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func RegisterProfile(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Profile
	if err := database.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	profile := models.Profile{
		Email:        input.Email,
		Firstname:    input.Firstname,
		Lastname:     input.Lastname,
		PasswordHash: string(hashedPassword),
	}
	if err := database.DB.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
		return
	}

	token, err := jwt.GenerateToken(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// LoginProfile godoc
// @Summary      Log in
// @Description  Authenticates a profile with email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      404  {object}  ErrorResponse "Profile not found"
// @Router       /auth/login [post]
func LoginProfile(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var profile models.Profile
	if err := database.DB.Where("email = ?", input.Email).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := jwt.GenerateToken(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// endregion

// region --- Profile Handlers ---

// GetMe godoc
// @Summary      Get current profile
// @Description  Retrieves the private view of the authenticated profile.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /profiles/me [get]
func GetMe(c *gin.Context) {
	viewerID, _ := c.Get("profileID")

	var profile models.Profile
	if err := database.DB.First(&profile, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, buildPrivateProfileResponse(profile))
}

// UpdateMe godoc
// @Summary      Update current profile
// @Description  Updates onboarding fields. The profile becomes servable by the feed once gender, birthdate, and location are set.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  PrivateProfileResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /profiles/me [put]
func UpdateMe(c *gin.Context) {
	viewerID, _ := c.Get("profileID")

	var profile models.Profile
	if err := database.DB.First(&profile, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Gender != "" {
		profile.Gender = input.Gender
	}
	if input.ShowMe != "" {
		profile.ShowMe = input.ShowMe
	}
	if input.Birthdate != "" {
		birthdate, err := time.Parse("2006-01-02", input.Birthdate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "birthdate must be YYYY-MM-DD"})
			return
		}
		profile.Birthdate = &birthdate
	}
	if input.Latitude != nil {
		profile.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		profile.Longitude = input.Longitude
	}
	if input.University != "" {
		profile.University = input.University
	}
	if input.Description != "" {
		profile.Description = input.Description
	}

	// Onboarding completes once the feed preconditions are satisfiable.
	if profile.HasResolvedAge() && profile.HasResolvedLocation() {
		profile.HasAccount = true
	}

	if err := database.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, buildPrivateProfileResponse(profile))
}

// GetProfileByID godoc
// @Summary      Get profile by ID
// @Description  Retrieves the public view for a specific profile.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Profile ID"
// @Success      200  {object}  PublicProfileResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /profiles/{id} [get]
func GetProfileByID(c *gin.Context) {
	viewerID, _ := c.Get("profileID")
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}

	if viewerID.(uint) == uint(targetID) {
		GetMe(c)
		return
	}

	var target models.Profile
	if err := database.DB.First(&target, uint(targetID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, buildPublicProfileResponse(target))
}

// SearchProfiles godoc
// @Summary      Search profiles
// @Description  Searches completed profiles by name or university with pagination.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicProfileResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /profiles [get]
func SearchProfiles(c *gin.Context) {
	viewerID, _ := c.Get("profileID")
	searchQuery := c.Query("q")

	page, limit := pageParams(c)

	query := database.DB.Model(&models.Profile{}).
		Where("has_account = ? AND id <> ?", true, viewerID.(uint))
	if searchQuery != "" {
		pattern := "%" + searchQuery + "%"
		query = query.Where("firstname LIKE ? OR lastname LIKE ? OR university LIKE ?", pattern, pattern, pattern)
	}

	result, err := Paginate[models.Profile](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profiles"})
		return
	}

	responses := make([]PublicProfileResponse, 0, len(result.Data))
	for _, p := range result.Data {
		responses = append(responses, buildPublicProfileResponse(p))
	}

	c.JSON(http.StatusOK, PaginatedResponse[PublicProfileResponse]{
		Data: responses,
		Meta: result.Meta,
	})
}

// BlockProfile godoc
// @Summary      Block a profile
// @Description  Records a directed block. Blocked profiles disappear from both feeds.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target Profile ID"
// @Success      200  {object}  map[string]string "{"message": "Profile blocked"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /profiles/{id}/block [post]
func BlockProfile(c *gin.Context) {
	viewerID, _ := c.Get("profileID")
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}
	if viewerID.(uint) == uint(targetID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot block yourself"})
		return
	}

	var target models.Profile
	if err := database.DB.First(&target, uint(targetID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	block := models.ProfileBlock{BlockerID: viewerID.(uint), BlockedID: uint(targetID)}
	if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&block).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to block profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile blocked"})
}

// UnblockProfile godoc
// @Summary      Unblock a profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target Profile ID"
// @Success      200  {object}  map[string]string "{"message": "Profile unblocked"}"
// @Failure      404  {object}  ErrorResponse "Block not found"
// @Router       /profiles/{id}/unblock [post]
func UnblockProfile(c *gin.Context) {
	viewerID, _ := c.Get("profileID")
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID"})
		return
	}

	result := database.DB.
		Where("blocker_id = ? AND blocked_id = ?", viewerID, uint(targetID)).
		Delete(&models.ProfileBlock{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unblock profile"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Block not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile unblocked"})
}

// CountLikedMe godoc
// @Summary      Count profiles that liked me
// @Description  Cache-first liked-you counter with DB fallback.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64 "{"count": 3}"
// @Failure      401  {object}  ErrorResponse
// @Router       /profiles/me/likes/count [get]
func CountLikedMe(c *gin.Context) {
	viewerID, _ := c.Get("profileID")
	ctx := c.Request.Context()

	if Cache != nil {
		if count, ok, err := Cache.GetLikeCount(ctx, viewerID.(uint)); err == nil && ok {
			c.JSON(http.StatusOK, gin.H{"count": count})
			return
		}
	}

	var count int64
	if err := database.DB.Model(&models.ProfileLike{}).
		Where("liked_id = ?", viewerID.(uint)).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count likes"})
		return
	}

	if Cache != nil {
		_ = Cache.SetLikeCount(ctx, viewerID.(uint), count)
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// endregion
