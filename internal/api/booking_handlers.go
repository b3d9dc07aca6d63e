package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"valetbay/internal/auth"
	"valetbay/internal/db"
	"valetbay/internal/repository"
	"valetbay/internal/service"

	"github.com/gorilla/mux"
)

type BookingHandler struct {
	Bookings     *service.BookingService
	Availability *service.AvailabilityService
	Locations    repository.LocationStore
}

func NewBookingHandler(bookings *service.BookingService, availability *service.AvailabilityService, locations repository.LocationStore) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Availability: availability, Locations: locations}
}

// ListLocations is the public read of active locations.
func (h *BookingHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Locations.ListActive()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots, err := h.Availability.GetAvailability(req.LocationID, date, req.DurationMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slots": slots})
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	requesterID, role, authenticated := auth.RequesterFromContext(r.Context())
	if authenticated && role != db.RoleCustomer && role != db.RoleAdmin {
		http.Error(w, "Only customers can create bookings", http.StatusForbidden)
		return
	}

	booking, err := h.Bookings.CreateBooking(service.CreateBookingRequest{
		RequesterID: requesterID,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		GuestPhone:  req.GuestPhone,
		LocationID:  req.LocationID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	requesterID, role := requesterOrGuest(r)

	booking, err := h.Bookings.GetBooking(id, requesterID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	requesterID, role, _ := auth.RequesterFromContext(r.Context())

	booking, err := h.Bookings.UpdateStatus(id, req.Status, requesterID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	requesterID, role := requesterOrGuest(r)

	booking, err := h.Bookings.Cancel(id, requesterID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// requesterOrGuest resolves the acting identity: the JWT requester when
// present, otherwise the guest cancel code from the query string acting as a
// customer.
func requesterOrGuest(r *http.Request) (string, db.Role) {
	if requesterID, role, ok := auth.RequesterFromContext(r.Context()); ok {
		return requesterID, role
	}
	return r.URL.Query().Get("code"), db.RoleCustomer
}

func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	requesterID, _, ok := auth.RequesterFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	bookings, err := h.Bookings.ListByRequester(requesterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}
