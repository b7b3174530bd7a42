package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentbazaar/internal/app/commands"
	"rentbazaar/internal/app/dto"
	ListingApp "rentbazaar/internal/app/handlers/listings"
	"rentbazaar/internal/app/queries"
)

type ListingHandler struct {
	Commands        commands.Bus
	Queries         queries.Bus
	DefaultCurrency string
}

type rateCardRequest struct {
	Hourly  int64 `json:"hourly"`
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

type createListingRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	City        string          `json:"city"`
	Currency    string          `json:"currency"`
	Rates       rateCardRequest `json:"rates"`
	Deposit     int64           `json:"deposit"`
}

func (h ListingHandler) Create(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.DefaultCurrency
	}
	cmd := ListingApp.CreateListingCommand{
		CommandID:   generateCommandID(),
		OwnerID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Currency:    currency,
		Rates:       ListingApp.RateCardInput(req.Rates),
		Deposit:     req.Deposit,
	}
	result, err := commands.Dispatch[ListingApp.CreateListingCommand, *ListingApp.ListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Activate(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	cmd := ListingApp.ActivateListingCommand{ListingID: c.Param("id"), OwnerID: user.ID}
	result, err := commands.Dispatch[ListingApp.ActivateListingCommand, *ListingApp.ListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

func (h ListingHandler) Suspend(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req suspendRequest
	_ = c.ShouldBindJSON(&req)
	cmd := ListingApp.SuspendListingCommand{ListingID: c.Param("id"), OwnerID: user.ID, Reason: req.Reason}
	result, err := commands.Dispatch[ListingApp.SuspendListingCommand, *ListingApp.ListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateRatesRequest struct {
	Currency string          `json:"currency"`
	Rates    rateCardRequest `json:"rates"`
	Deposit  int64           `json:"deposit"`
}

func (h ListingHandler) UpdateRates(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req updateRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.DefaultCurrency
	}
	cmd := ListingApp.UpdateListingRatesCommand{
		ListingID: c.Param("id"),
		OwnerID:   user.ID,
		Currency:  currency,
		Rates:     ListingApp.RateCardInput(req.Rates),
		Deposit:   req.Deposit,
	}
	result, err := commands.Dispatch[ListingApp.UpdateListingRatesCommand, *ListingApp.ListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockDatesRequest struct {
	Dates   []time.Time `json:"dates" binding:"required"`
	Unblock bool        `json:"unblock"`
}

func (h ListingHandler) BlockDates(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req blockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ListingApp.BlockDatesCommand{
		ListingID: c.Param("id"),
		OwnerID:   user.ID,
		Dates:     req.Dates,
		Unblock:   req.Unblock,
	}
	result, err := commands.Dispatch[ListingApp.BlockDatesCommand, *ListingApp.ListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Calendar(c *gin.Context) {
	q := ListingApp.CalendarQuery{ListingID: c.Param("id")}
	view, err := queries.Ask[ListingApp.CalendarQuery, dto.CalendarView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h ListingHandler) Quote(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start: " + err.Error()})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end: " + err.Error()})
		return
	}
	q := ListingApp.QuoteQuery{
		ListingID: c.Param("id"),
		StartDate: start,
		EndDate:   end,
		PriceType: c.Query("price_type"),
	}
	view, err := queries.Ask[ListingApp.QuoteQuery, dto.QuoteView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h ListingHandler) ListOwned(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := ListingApp.ListOwnerListingsQuery{OwnerID: user.ID}
	result, err := queries.Ask[ListingApp.ListOwnerListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
