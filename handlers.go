package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vitrine/models"
	"vitrine/pkg/notify"
	"vitrine/pkg/receipt"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/profile", createProfileHandler)
	authGroup.GET("/profile", getProfileHandler)
	authGroup.POST("/projects", createProjectHandler)
	authGroup.GET("/projects", listProjectsHandler)
	authGroup.GET("/projects/:id", getProjectHandler)
	authGroup.PATCH("/projects/:id/status", updateProjectStatusHandler)
	authGroup.POST("/projects/:id/receipts", uploadReceiptHandler)
	authGroup.GET("/projects/:id/receipts", listProjectReceiptsHandler)
	authGroup.GET("/receipts", listReviewQueueHandler)
	authGroup.POST("/receipts/:id/review", reviewReceiptHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	username := usernameVal.(string)
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("role")
	return role == "administrator"
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Register(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

func createProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name    string `json:"name" binding:"required"`
		Company string `json:"company"`
		Address string `json:"address"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile := models.Profile{UserID: user.ID, Name: req.Name, Company: req.Company, Address: req.Address, Email: req.Email, Phone: req.Phone}
	if err := db.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": profile.ID})
}

func getProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var p models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&p).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// newProjectReference builds the payment reference code the client writes
// on the bank transfer, e.g. WEB-3F9A2C.
func newProjectReference() string {
	u := uuid.New()
	return fmt.Sprintf("WEB-%X", u[0:3])
}

// createProjectHandler registers a new website request for the client.
func createProjectHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		Quote       float64 `json:"quote" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quote <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quote must be positive"})
		return
	}
	p := models.Project{
		ClientID:    user.ID,
		Reference:   newProjectReference(),
		Title:       req.Title,
		Description: req.Description,
		Quote:       req.Quote,
		Status:      models.ProjectPending,
	}
	if err := db.Create(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "reference": p.Reference, "status": p.Status})
}

// listProjectsHandler lists recent projects for the authenticated user (admin sees all)
func listProjectsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Project
	q := db.Model(&models.Project{})
	if !isAdmin(c) {
		q = q.Where("client_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// loadProjectForCaller fetches the project and enforces ownership (admins
// see everything).
func loadProjectForCaller(c *gin.Context) (*models.Project, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	var p models.Project
	if err := db.First(&p, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	if !isAdmin(c) && p.ClientID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &p, true
}

func getProjectHandler(c *gin.Context) {
	p, ok := loadProjectForCaller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// updateProjectStatusHandler lets an admin progress a project.
func updateProjectStatusHandler(c *gin.Context) {
	if !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case models.ProjectPending, models.ProjectInProgress, models.ProjectCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	var p models.Project
	if err := db.First(&p, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	p.Status = req.Status
	if err := db.Save(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	go notifyProject(p, "project_status", fmt.Sprintf("Project %s is now %s", p.Reference, p.Status))
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "status": p.Status})
}

// decidePaymentStatus maps a confidence score into the three-way decision.
// The bands are policy, owned here and not by pkg/receipt.
func decidePaymentStatus(confidence int) string {
	switch {
	case confidence >= cfg.AutoAcceptScore:
		return models.PaymentVerified
	case confidence >= cfg.ReviewScore:
		return models.PaymentReview
	default:
		return models.PaymentRejected
	}
}

// uploadReceiptHandler accepts a photographed bank-transfer receipt for a
// project, validates it against the project's reference and quote, and
// records the outcome. Rejections are retryable up to cfg.MaxAttempts.
func uploadReceiptHandler(c *gin.Context) {
	p, ok := loadProjectForCaller(c)
	if !ok {
		return
	}

	var verified int64
	db.Model(&models.Payment{}).Where("project_id = ? AND status = ?", p.ID, models.PaymentVerified).Count(&verified)
	if verified > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "project already paid"})
		return
	}
	var final int64
	db.Model(&models.Payment{}).Where("project_id = ? AND status = ?", p.ID, models.PaymentRejectedFinal).Count(&final)
	if final > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "payment permanently rejected, contact support"})
		return
	}
	var attempts int64
	db.Model(&models.Payment{}).Where("project_id = ?", p.ID).Count(&attempts)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}

	storedName := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	dir := filepath.Join(cfg.UploadBase, "receipts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	fullPath := filepath.Join(dir, storedName)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	expected := receipt.Expected{ReferenceCode: p.Reference, Amount: p.Quote}
	fields, result, err := validator.Validate(fullPath, expected, time.Now())
	if err != nil {
		_ = os.Remove(fullPath)
		switch {
		case errors.Is(err, receipt.ErrImageUnreadable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read receipt, upload a clearer photo"})
		case errors.Is(err, receipt.ErrOCRUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "receipt reader unavailable, try again shortly"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		}
		return
	}

	status := decidePaymentStatus(result.Confidence)
	attempt := int(attempts) + 1
	if status == models.PaymentRejected && attempt >= cfg.MaxAttempts {
		status = models.PaymentRejectedFinal
	}

	pay := models.Payment{
		ProjectID:       p.ID,
		FileName:        file.Filename,
		StorePath:       filepath.Join("receipts", storedName),
		ContentType:     file.Header.Get("Content-Type"),
		ExpectedAmount:  p.Quote,
		ExtractedCode:   fields.ReferenceCode,
		ExtractedAmount: fields.Amount,
		ExtractedDate:   fields.Date,
		RawText:         fields.RawText,
		CodeMatches:     result.ReferenceCodeMatches,
		AmountMatches:   result.AmountMatches,
		DatePlausible:   result.DatePlausible,
		Confidence:      result.Confidence,
		Status:          status,
		Attempt:         attempt,
	}
	if err := db.Create(&pay).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}

	if status == models.PaymentVerified {
		progressPaidProject(p)
	}
	go notifyProject(*p, "payment_"+status, fmt.Sprintf("Receipt for %s scored %d: %s", p.Reference, result.Confidence, status))

	c.JSON(http.StatusOK, gin.H{
		"id":         pay.ID,
		"status":     pay.Status,
		"attempt":    pay.Attempt,
		"confidence": result.Confidence,
		"result":     result,
		"extracted": gin.H{
			"reference_code": fields.ReferenceCode,
			"amount":         fields.Amount,
			"date":           fields.Date,
		},
	})
}

// progressPaidProject auto-advances a pending project once its payment is
// verified.
func progressPaidProject(p *models.Project) {
	if p.Status != models.ProjectPending {
		return
	}
	p.Status = models.ProjectInProgress
	if err := db.Save(p).Error; err != nil {
		return
	}
}

func listProjectReceiptsHandler(c *gin.Context) {
	p, ok := loadProjectForCaller(c)
	if !ok {
		return
	}
	var payments []models.Payment
	if err := db.Where("project_id = ?", p.ID).Order("id desc").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

// listReviewQueueHandler returns payments by status for admins; defaults to
// the manual-review queue.
func listReviewQueueHandler(c *gin.Context) {
	if !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	status := c.DefaultQuery("status", models.PaymentReview)
	var payments []models.Payment
	if err := db.Where("status = ?", status).Order("id desc").Limit(100).Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

// reviewReceiptHandler records the human verdict on a held payment,
// overriding the score.
func reviewReceiptHandler(c *gin.Context) {
	if !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	admin, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required"` // approve | reject
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var pay models.Payment
	if err := db.First(&pay, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if pay.Status != models.PaymentReview && pay.Status != models.PaymentRejected {
		c.JSON(http.StatusConflict, gin.H{"error": "payment not awaiting review"})
		return
	}
	switch req.Decision {
	case "approve":
		pay.Status = models.PaymentVerified
	case "reject":
		pay.Status = models.PaymentRejectedFinal
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be approve or reject"})
		return
	}
	aid := admin.ID
	pay.ReviewedBy = &aid
	pay.ReviewNote = req.Note
	if err := db.Save(&pay).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	var p models.Project
	if err := db.First(&p, pay.ProjectID).Error; err == nil {
		if pay.Status == models.PaymentVerified {
			progressPaidProject(&p)
		}
		go notifyProject(p, "payment_"+pay.Status, fmt.Sprintf("Receipt for %s reviewed: %s", p.Reference, pay.Status))
	}
	c.JSON(http.StatusOK, gin.H{"id": pay.ID, "status": pay.Status})
}

// notifyProject sends a fire-and-forget event to the project's client.
func notifyProject(p models.Project, kind, body string) {
	email := ""
	var profile models.Profile
	if err := db.Where("user_id = ?", p.ClientID).First(&profile).Error; err == nil {
		email = profile.Email
	}
	notifier.Send(notify.Event{
		Kind:      kind,
		Recipient: email,
		Subject:   "Project " + p.Reference,
		Body:      body,
	})
}
