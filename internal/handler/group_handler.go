package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"campusmatch/backend/internal/database"
	"campusmatch/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// JoinGroupInput carries the share link used to join an existing group.
type JoinGroupInput struct {
	ShareLink string `json:"share_link" binding:"required"`
}

// GroupResponse is the full view of a group.
type GroupResponse struct {
	ID           uint                    `json:"id"`
	ShareLink    string                  `json:"share_link"`
	Gender       models.Gender           `json:"gender"`
	Age          int                     `json:"age"`
	TotalMembers int                     `json:"total_members"`
	Owner        PublicProfileResponse   `json:"owner"`
	Members      []PublicProfileResponse `json:"members"`
}

func newGroupResponse(g models.Group) GroupResponse {
	members := make([]PublicProfileResponse, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, buildPublicProfileResponse(m))
	}
	return GroupResponse{
		ID:           g.ID,
		ShareLink:    g.ShareLink,
		Gender:       g.Gender,
		Age:          g.Age,
		TotalMembers: g.TotalMembers,
		Owner:        buildPublicProfileResponse(g.Owner),
		Members:      members,
	}
}

// endregion

// CreateGroup godoc
// @Summary      Create a group
// @Description  Creates a group with the creator as owner and first member. Gender and age derive from the owner.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  GroupResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Profile is already in a group"
// @Router       /groups [post]
func CreateGroup(c *gin.Context) {
	profileID, _ := c.Get("profileID")

	var profile models.Profile
	if err := database.DB.First(&profile, profileID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if profile.CurrentGroupID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Profile is already in a group"})
		return
	}

	shareLink, err := generateShareLink()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate share link"})
		return
	}

	now := time.Now()
	group := models.Group{
		OwnerID:      profile.ID,
		ShareLink:    shareLink,
		Gender:       profile.Gender,
		Age:          profile.Age(now),
		TotalMembers: 1,
	}

	// Use a transaction to ensure both group creation and membership succeed
	tx := database.DB.Begin()

	if err := tx.Create(&group).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	profile.CurrentGroupID = &group.ID
	profile.GroupJoinedAt = &now
	if err := tx.Save(&profile).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add owner to group"})
		return
	}

	tx.Commit()

	database.DB.Preload("Owner").Preload("Members").First(&group, group.ID)
	c.JSON(http.StatusCreated, newGroupResponse(group))
}

// JoinGroup godoc
// @Summary      Join a group by share link
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body JoinGroupInput true "Share link"
// @Success      200  {object}  GroupResponse
// @Failure      404  {object}  ErrorResponse "Group not found"
// @Failure      409  {object}  ErrorResponse "Profile is already in a group"
// @Router       /groups/join [post]
func JoinGroup(c *gin.Context) {
	profileID, _ := c.Get("profileID")

	var input JoinGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var profile models.Profile
	if err := database.DB.First(&profile, profileID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if profile.CurrentGroupID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Profile is already in a group"})
		return
	}

	var group models.Group
	if err := database.DB.Where("share_link = ?", input.ShareLink).First(&group).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	now := time.Now()
	tx := database.DB.Begin()

	profile.CurrentGroupID = &group.ID
	profile.GroupJoinedAt = &now
	if err := tx.Save(&profile).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join group"})
		return
	}
	if err := recomputeGroupSize(tx, group.ID); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
		return
	}

	tx.Commit()

	database.DB.Preload("Owner").Preload("Members").First(&group, group.ID)
	c.JSON(http.StatusOK, newGroupResponse(group))
}

// LeaveGroup godoc
// @Summary      Leave the current group
// @Description  A member leaving shrinks the group. The owner leaving disbands it: membership is stripped from everyone.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "Left group"}"
// @Failure      404  {object}  ErrorResponse "Profile is not in a group"
// @Router       /groups/leave [post]
func LeaveGroup(c *gin.Context) {
	profileID, _ := c.Get("profileID")

	var profile models.Profile
	if err := database.DB.First(&profile, profileID.(uint)).Error; err != nil || profile.CurrentGroupID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile is not in a group"})
		return
	}

	var group models.Group
	if err := database.DB.First(&group, *profile.CurrentGroupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	tx := database.DB.Begin()

	if group.OwnerID == profile.ID {
		// Owner leaving disbands the group.
		if err := tx.Model(&models.Profile{}).
			Where("current_group_id = ?", group.ID).
			Updates(map[string]interface{}{"current_group_id": nil, "group_joined_at": nil}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disband group"})
			return
		}
		if err := tx.Delete(&group).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group"})
			return
		}
		tx.Commit()
		c.JSON(http.StatusOK, gin.H{"message": "Group disbanded"})
		return
	}

	if err := tx.Model(&profile).
		Updates(map[string]interface{}{"current_group_id": nil, "group_joined_at": nil}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave group"})
		return
	}
	if err := recomputeGroupSize(tx, group.ID); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
		return
	}

	tx.Commit()
	c.JSON(http.StatusOK, gin.H{"message": "Left group"})
}

// GetGroupByID godoc
// @Summary      Get a group by ID
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} GroupResponse
// @Failure      404 {object} ErrorResponse "Group not found"
// @Router       /groups/{id} [get]
func GetGroupByID(c *gin.Context) {
	groupID, _ := strconv.Atoi(c.Param("id"))

	var group models.Group
	if err := database.DB.Preload("Owner").Preload("Members").First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	c.JSON(http.StatusOK, newGroupResponse(group))
}

// KickMember godoc
// @Summary      Kick a member from a group (Owner only)
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id         path int true "Group ID"
// @Param        profileID  path int true "Profile ID of member to kick"
// @Success      200 {object} map[string]string "{"message": "Member kicked successfully"}"
// @Failure      403 {object} ErrorResponse "Only the owner can kick members"
// @Failure      404 {object} ErrorResponse "Group or member not found"
// @Router       /groups/{id}/members/{profileID} [delete]
func KickMember(c *gin.Context) {
	ownerID, _ := c.Get("profileID")
	groupID, _ := strconv.Atoi(c.Param("id"))
	memberToKickID, _ := strconv.Atoi(c.Param("profileID"))

	var group models.Group
	if err := database.DB.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if group.OwnerID != ownerID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can kick members"})
		return
	}
	if group.OwnerID == uint(memberToKickID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner cannot kick themselves"})
		return
	}

	var member models.Profile
	if err := database.DB.Where("id = ? AND current_group_id = ?", memberToKickID, groupID).First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found in this group"})
		return
	}

	tx := database.DB.Begin()
	if err := tx.Model(&member).
		Updates(map[string]interface{}{"current_group_id": nil, "group_joined_at": nil}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to kick member"})
		return
	}
	if err := recomputeGroupSize(tx, group.ID); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
		return
	}
	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Member kicked successfully"})
}

// recomputeGroupSize refreshes the cached member count after a membership change.
func recomputeGroupSize(tx *gorm.DB, groupID uint) error {
	var count int64
	if err := tx.Model(&models.Profile{}).
		Where("current_group_id = ?", groupID).
		Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&models.Group{}).
		Where("id = ?", groupID).
		Update("total_members", count).Error
}

func generateShareLink() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
