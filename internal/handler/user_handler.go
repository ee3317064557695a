package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"chatapp/backend/internal/auth"
	"chatapp/backend/internal/friendship"
	"chatapp/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// UserSummary is one entry of the user directory.
type UserSummary struct {
	ID       uint   `json:"id" example:"2"`
	Username string `json:"username" example:"bob"`
	Email    string `json:"email" example:"bob@example.com"`
	Name     string `json:"name" example:"Bob"`
}

// ProfileResponse is the caller's own profile.
type ProfileResponse struct {
	ID       uint   `json:"id" example:"1"`
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Name     string `json:"name" example:"Alice"`
	Bio      string `json:"bio" example:"Hello there"`
	Gender   string `json:"gender" example:"female"`
}

// ProfileEnvelope wraps a profile with a status message.
type ProfileEnvelope struct {
	Message string          `json:"message" example:"Profile loaded"`
	User    ProfileResponse `json:"user"`
}

// UpdateProfileInput lists the editable profile fields. Omitted fields are left unchanged.
type UpdateProfileInput struct {
	Username *string `json:"username" example:"alice"`
	Name     *string `json:"name" example:"Alice"`
	Bio      *string `json:"bio" example:"Hello there"`
	Gender   *string `json:"gender" example:"female"`
}

// PublicUserResponse defines the structure for another user's public profile.
type PublicUserResponse struct {
	ID       uint                `json:"id" example:"2"`
	Username string              `json:"username" example:"bob"`
	Name     string              `json:"name" example:"Bob"`
	Bio      string              `json:"bio" example:"Hi"`
	Gender   string              `json:"gender" example:"male"`
	Relation friendship.Relation `json:"relation" example:"none"`
}

// PaginatedUserResponse documents the paginated user list.
type PaginatedUserResponse struct {
	Data []UserSummary  `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// endregion

var errNothingToUpdate = errors.New("nothing to update")

// Profiles are left-joined, so their columns may be NULL.
const profileColumns = "users.id, users.username, users.email, " +
	"COALESCE(profiles.name, '') AS name, COALESCE(profiles.bio, '') AS bio, COALESCE(profiles.gender, '') AS gender"

// SearchUsers godoc
// @Summary      List users
// @Description  Lists every user except the caller, optionally filtered by username.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for username"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedUserResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /users [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	page, limit := pageParams(c)

	query := h.db.Model(&models.User{}).
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("users.id <> ?", auth.UserID(c))
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("LOWER(users.username) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	query = query.Order("users.username")

	response, err := Paginate[UserSummary](query, page, limit, "users.id", "users.username", "users.email", "COALESCE(profiles.name, '') AS name")
	if err != nil {
		serverError(c, "Failed to retrieve users", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetProfile godoc
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileEnvelope
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.loadProfile(auth.UserID(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
		return
	}
	if err != nil {
		serverError(c, "Failed to load profile", err)
		return
	}

	c.JSON(http.StatusOK, ProfileEnvelope{Message: "Profile loaded", User: profile})
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Description  Changes the username and any of name, bio and gender.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  ProfileEnvelope
// @Failure      400  {object}  ErrorResponse "Empty or taken username, or nothing to update"
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if input.Username == nil || strings.TrimSpace(*input.Username) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Username cannot be empty"})
		return
	}
	username := strings.TrimSpace(*input.Username)
	userID := auth.UserID(c)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "username").First(&user, userID).Error; err != nil {
			return err
		}

		updated := false
		if username != user.Username {
			if err := tx.Model(&user).Update("username", username).Error; err != nil {
				return err
			}
			updated = true
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			fields["name"] = *input.Name
		}
		if input.Bio != nil {
			fields["bio"] = *input.Bio
		}
		if input.Gender != nil {
			fields["gender"] = *input.Gender
		}
		if len(fields) > 0 {
			profile := models.Profile{UserID: userID}
			if err := tx.Where(models.Profile{UserID: userID}).FirstOrCreate(&profile).Error; err != nil {
				return err
			}
			if err := tx.Model(&profile).Updates(fields).Error; err != nil {
				return err
			}
			updated = true
		}

		if !updated {
			return errNothingToUpdate
		}
		return nil
	})
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Username is already taken"})
		return
	case errors.Is(err, errNothingToUpdate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Nothing to update"})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	case err != nil:
		serverError(c, "Failed to update profile", err)
		return
	}

	profile, err := h.loadProfile(userID)
	if err != nil {
		serverError(c, "Failed to load profile", err)
		return
	}
	c.JSON(http.StatusOK, ProfileEnvelope{Message: "Profile updated", User: profile})
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves another user's public profile and how the caller relates to them.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID"})
		return
	}

	profile, err := h.loadProfile(uint(targetID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		serverError(c, "Failed to load user", err)
		return
	}

	relation, err := h.friends.RelationTo(c.Request.Context(), auth.UserID(c), profile.ID)
	if err != nil {
		respondFriendshipError(c, err)
		return
	}

	c.JSON(http.StatusOK, PublicUserResponse{
		ID:       profile.ID,
		Username: profile.Username,
		Name:     profile.Name,
		Bio:      profile.Bio,
		Gender:   profile.Gender,
		Relation: relation,
	})
}

func (h *Handler) loadProfile(userID uint) (ProfileResponse, error) {
	var rows []ProfileResponse
	err := h.db.Model(&models.User{}).
		Select(profileColumns).
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("users.id = ?", userID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return ProfileResponse{}, err
	}
	if len(rows) == 0 {
		return ProfileResponse{}, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}
