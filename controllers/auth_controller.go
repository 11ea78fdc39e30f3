package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

const oauthStateTTL = 10 * time.Minute

// AuthController handles authentication related endpoints including local and third-party providers.
type AuthController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, cfg config.AppConfig) *AuthController {
	return &AuthController{db: db, cfg: cfg}
}

// Register creates a local account with a bcrypt password hash and signs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username      string `json:"username" binding:"required,max=150"`
		Email         string `json:"email" binding:"omitempty,email"`
		Password      string `json:"password" binding:"required,min=8,max=128"`
		Confirm       string `json:"confirm" binding:"required,eqfield=Password"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if !blog.ValidUsername(username) {
		utils.ValidationFailed(ctx, 40001, map[string]string{"username": "may contain only letters, digits and @/./+/-/_"})
		return
	}
	if a.cfg.RegisterCaptchaEnabled &&
		!utils.VerifyCaptcha(strings.TrimSpace(req.CaptchaID), strings.TrimSpace(req.CaptchaAnswer)) {
		utils.ValidationFailed(ctx, 40001, map[string]string{"captcha_answer": "wrong or expired captcha"})
		return
	}

	var taken int64
	if err := a.db.WithContext(ctx.Request.Context()).Model(&models.User{}).
		Where("username = ?", username).Count(&taken).Error; err != nil {
		respondError(ctx, fmt.Errorf("check username: %w", err))
		return
	}
	if taken > 0 {
		utils.ValidationFailed(ctx, 40001, map[string]string{"username": "a user with that username already exists"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		utils.ValidationFailed(ctx, 40001, map[string]string{"password": "must be at most 72 bytes"})
		return
	}
	if err != nil {
		respondError(ctx, fmt.Errorf("hash password: %w", err))
		return
	}
	user := models.NewUser(username, strings.TrimSpace(req.Email), hash, time.Now().UTC())
	if err := a.db.WithContext(ctx.Request.Context()).Create(&user).Error; err != nil {
		respondError(ctx, fmt.Errorf("create user: %w", err))
		return
	}
	a.issueToken(ctx, http.StatusCreated, user)
}

// Captcha returns a fresh captcha id and base64 image (data URI).
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		respondError(ctx, fmt.Errorf("generate captcha: %w", err))
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": b64, "enabled": a.cfg.RegisterCaptchaEnabled})
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	var user models.User
	err := a.db.WithContext(ctx.Request.Context()).Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(ctx, fmt.Errorf("load user: %w", err))
		return
	}
	if err != nil || user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	a.issueToken(ctx, http.StatusOK, user)
}

// Logout revokes the presented token until it would have expired anyway.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	expiresAt := ctx.GetTime(middleware.ContextTokenExpiryKey)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(a.tokenTTL())
	}
	utils.RevokeToken(token, expiresAt)
	redirectTo(ctx, http.StatusOK, indexPath(), gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	var user models.User
	err := a.db.WithContext(ctx.Request.Context()).First(&user, middleware.CurrentViewer(ctx).ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = blog.ErrNotFound
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, a.userResponse(user))
}

// OAuthRedirect generates a provider-specific authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	cfg, err := a.oauthConfig(ctx.Param("provider"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, oauthStateTTL)
	utils.Success(ctx, gin.H{"authorization_url": cfg.AuthCodeURL(state), "state": state})
}

// OAuthCallback exchanges the authorization code for a user identity and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := strings.ToLower(ctx.Param("provider"))
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}
	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}
	cfg, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	reqCtx := ctx.Request.Context()
	token, err := cfg.Exchange(reqCtx, code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}
	info, err := fetchOAuthUser(reqCtx, cfg.Client(reqCtx, token), provider)
	if err != nil {
		respondError(ctx, err)
		return
	}
	user, err := a.findOrCreateOAuthUser(reqCtx, provider, info)
	if err != nil {
		respondError(ctx, err)
		return
	}
	a.issueToken(ctx, http.StatusOK, user)
}

func (a *AuthController) issueToken(ctx *gin.Context, status int, user models.User) {
	token, err := utils.GenerateToken(a.cfg.JWTSecret, user.ID, user.Username, a.tokenTTL())
	if err != nil {
		respondError(ctx, fmt.Errorf("generate token: %w", err))
		return
	}
	redirectTo(ctx, status, profilePath(user.Username), gin.H{
		"token": token,
		"user":  a.userResponse(user),
	})
}

func (a *AuthController) tokenTTL() time.Duration {
	return time.Duration(a.cfg.JWTTTLHours) * time.Hour
}

func (a *AuthController) userResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"provider":   user.Provider,
		"created_at": user.CreatedAt,
		"is_admin":   a.cfg.IsAdmin(user.Username),
	}
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	switch strings.ToLower(provider) {
	case "github":
		if a.cfg.GitHubClientID == "" || a.cfg.GitHubClientSecret == "" {
			return nil, errors.New("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     a.cfg.GitHubClientID,
			ClientSecret: a.cfg.GitHubClientSecret,
			RedirectURL:  a.cfg.OAuthRedirectBase + apiPrefix + "/auth/oauth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if a.cfg.GoogleClientID == "" || a.cfg.GoogleClientSecret == "" {
			return nil, errors.New("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     a.cfg.GoogleClientID,
			ClientSecret: a.cfg.GoogleClientSecret,
			RedirectURL:  a.cfg.OAuthRedirectBase + apiPrefix + "/auth/oauth/google/callback",
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type oauthUser struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

func (a *AuthController) findOrCreateOAuthUser(ctx context.Context, provider string, info oauthUser) (models.User, error) {
	db := a.db.WithContext(ctx)
	var user models.User
	err := db.Where("provider = ? AND provider_id = ?", provider, info.ID).First(&user).Error
	if err == nil {
		if email := strings.TrimSpace(info.Email); email != "" && email != user.Email {
			if err := db.Model(&user).Update("email", email).Error; err != nil {
				return models.User{}, fmt.Errorf("update oauth email: %w", err)
			}
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("load oauth user: %w", err)
	}

	username, err := a.uniqueUsername(ctx, info.Username, provider, info.ID)
	if err != nil {
		return models.User{}, err
	}
	user = models.NewUser(username, strings.TrimSpace(info.Email), "", time.Now().UTC())
	user.FirstName = info.FirstName
	user.LastName = info.LastName
	user.Provider = provider
	user.ProviderID = info.ID
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create oauth user: %w", err)
	}
	return user, nil
}

func (a *AuthController) uniqueUsername(ctx context.Context, base, provider, id string) (string, error) {
	base = sanitizeUsername(base)
	if base == "" {
		base = sanitizeUsername(provider + "_" + id)
	}
	candidate := base
	for suffix := 1; ; suffix++ {
		var count int64
		if err := a.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
	}
}

// sanitizeUsername keeps the characters a local username may contain.
func sanitizeUsername(input string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(input) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune("_-.@+", r):
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 140 {
		out = out[:140]
	}
	return out
}

func fetchOAuthUser(ctx context.Context, client *http.Client, provider string) (oauthUser, error) {
	switch provider {
	case "github":
		var payload struct {
			ID    int64  `json:"id"`
			Login string `json:"login"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/user", &payload); err != nil {
			return oauthUser{}, err
		}
		first, last, _ := strings.Cut(strings.TrimSpace(payload.Name), " ")
		return oauthUser{
			ID:        fmt.Sprintf("%d", payload.ID),
			Username:  payload.Login,
			FirstName: first,
			LastName:  last,
			Email:     payload.Email,
		}, nil
	case "google":
		var payload struct {
			ID         string `json:"id"`
			Email      string `json:"email"`
			GivenName  string `json:"given_name"`
			FamilyName string `json:"family_name"`
		}
		if err := getJSON(ctx, client, "https://www.googleapis.com/oauth2/v2/userinfo", &payload); err != nil {
			return oauthUser{}, err
		}
		local, _, _ := strings.Cut(payload.Email, "@")
		return oauthUser{
			ID:        payload.ID,
			Username:  local,
			FirstName: payload.GivenName,
			LastName:  payload.FamilyName,
			Email:     payload.Email,
		}, nil
	default:
		return oauthUser{}, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func getJSON(ctx context.Context, client *http.Client, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
