package ginserver

import (
	"fmt"
	"net/http"
	"path"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentbazaar/internal/app/commands"
	"rentbazaar/internal/app/dto"
	BookingApp "rentbazaar/internal/app/handlers/booking"
	"rentbazaar/internal/app/queries"
	"rentbazaar/internal/infra/storage/s3"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Uploader s3.Uploader
}

type createBookingRequest struct {
	ListingID string    `json:"listing_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
	PriceType string    `json:"price_type"`
	Message   string    `json:"message"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.CreateBookingCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		RenterID:        user.ID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		PriceType:       req.PriceType,
		Message:         req.Message,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.CreateBookingCommand, *BookingApp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := BookingApp.GetBookingQuery{Reference: c.Param("ref"), Actor: user.actor()}
	view, err := queries.Ask[BookingApp.GetBookingQuery, dto.BookingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := BookingApp.ListRenterBookingsQuery{RenterID: user.ID, Status: c.Query("status")}
	result, err := queries.Ask[BookingApp.ListRenterBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListOwned(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := BookingApp.ListOwnerBookingsQuery{OwnerID: user.ID, Status: c.Query("status")}
	result, err := queries.Ask[BookingApp.ListOwnerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type transitionRequest struct {
	Target      string   `json:"target" binding:"required"`
	Reason      string   `json:"reason"`
	DamageNotes string   `json:"damage_notes"`
	PhotoURLs   []string `json:"photo_urls"`
}

// Transition handles every status change on one endpoint. Damage photos
// referenced by URL were uploaded beforehand via the photos endpoint.
func (h BookingHandler) Transition(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.TransitionBookingCommand{
		Reference:       c.Param("ref"),
		Target:          req.Target,
		Actor:           user.actor(),
		Reason:          req.Reason,
		DamageNotes:     req.DamageNotes,
		DamagePhotoURLs: req.PhotoURLs,
	}
	result, err := commands.Dispatch[BookingApp.TransitionBookingCommand, *BookingApp.TransitionBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type extensionRequest struct {
	ProposedEnd time.Time `json:"proposed_end" binding:"required"`
}

func (h BookingHandler) RequestExtension(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req extensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.RequestExtensionCommand{
		ExtensionID: generateCommandID(),
		Reference:   c.Param("ref"),
		RenterID:    user.ID,
		ProposedEnd: req.ProposedEnd,
	}
	result, err := commands.Dispatch[BookingApp.RequestExtensionCommand, *BookingApp.ExtensionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

type decideExtensionRequest struct {
	Approve bool `json:"approve"`
}

func (h BookingHandler) DecideExtension(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req decideExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := BookingApp.DecideExtensionCommand{
		Reference:   c.Param("ref"),
		ExtensionID: c.Param("ext"),
		OwnerID:     user.ID,
		Approve:     req.Approve,
	}
	result, err := commands.Dispatch[BookingApp.DecideExtensionCommand, *BookingApp.ExtensionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadPhoto stores one damage photo and returns its public URL. The URL is
// then referenced in a check-out transition request.
func (h BookingHandler) UploadPhoto(c *gin.Context) {
	if _, ok := requirePrincipal(c); !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage is not configured"})
		return
	}
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("damage/%s/%s%s", c.Param("ref"), uuid.NewString(), path.Ext(header.Filename))
	url, err := h.Uploader.Upload(c.Request.Context(), key, file, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
