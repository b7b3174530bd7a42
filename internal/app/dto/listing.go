package dto

import (
	"time"

	domainlistings "rentbazaar/internal/domain/listings"
	"rentbazaar/internal/domain/shared/money"
)

func mapMoney(m money.Money) MoneyView {
	return MoneyView{Amount: m.Amount, Currency: m.Currency}
}

type RateCardView struct {
	Hourly  *MoneyView `json:"hourly,omitempty"`
	Daily   *MoneyView `json:"daily,omitempty"`
	Weekly  *MoneyView `json:"weekly,omitempty"`
	Monthly *MoneyView `json:"monthly,omitempty"`
}

type ListingView struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	City        string       `json:"city,omitempty"`
	State       string       `json:"state"`
	Rates       RateCardView `json:"rates"`
	Deposit     MoneyView    `json:"deposit"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type ListingCollection struct {
	Items []ListingView `json:"items"`
}

func MapListing(l *domainlistings.Listing) ListingView {
	return ListingView{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		City:        l.City,
		State:       string(l.State),
		Rates:       mapRateCard(l),
		Deposit:     mapMoney(l.Policies.Deposit),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func mapRateCard(l *domainlistings.Listing) RateCardView {
	view := RateCardView{}
	if l.Rates.Hourly.IsPositive() {
		v := mapMoney(l.Rates.Hourly)
		view.Hourly = &v
	}
	if l.Rates.Daily.IsPositive() {
		v := mapMoney(l.Rates.Daily)
		view.Daily = &v
	}
	if l.Rates.Weekly.IsPositive() {
		v := mapMoney(l.Rates.Weekly)
		view.Weekly = &v
	}
	if l.Rates.Monthly.IsPositive() {
		v := mapMoney(l.Rates.Monthly)
		view.Monthly = &v
	}
	return view
}
