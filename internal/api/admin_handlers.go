package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"valetbay/internal/db"
	"valetbay/internal/repository"
	"valetbay/internal/service"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	Bookings  *service.BookingService
	Schedules *service.ScheduleService
	Locations repository.LocationStore
}

func NewAdminHandler(bookings *service.BookingService, schedules *service.ScheduleService, locations repository.LocationStore) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Schedules: schedules, Locations: locations}
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	status := r.URL.Query().Get("status")
	locationID := 0
	if v := r.URL.Query().Get("location_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid location_id", http.StatusBadRequest)
			return
		}
		locationID = id
	}

	bookings, err := h.Bookings.ListBookings(date, locationID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

func (h *AdminHandler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	var req UpsertScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	schedule, err := h.Schedules.Upsert(req.LocationID, req.DayOfWeek, req.StartTime, req.EndTime, req.IsActive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (h *AdminHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.Atoi(mux.Vars(r)["location_id"])
	if err != nil {
		http.Error(w, "Invalid location ID", http.StatusBadRequest)
		return
	}
	schedules, err := h.Schedules.ListForLocation(locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (h *AdminHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	locationID, err := strconv.Atoi(vars["location_id"])
	if err != nil {
		http.Error(w, "Invalid location ID", http.StatusBadRequest)
		return
	}
	dayOfWeek, err := strconv.Atoi(vars["day"])
	if err != nil {
		http.Error(w, "Invalid day", http.StatusBadRequest)
		return
	}
	if err := h.Schedules.Delete(locationID, dayOfWeek); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Schedule deleted"})
}

func (h *AdminHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.HourlyRateCents <= 0 {
		http.Error(w, "name and a positive hourly_rate_cents are required", http.StatusBadRequest)
		return
	}
	location := &db.Location{
		Name:            req.Name,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		HourlyRateCents: req.HourlyRateCents,
		IsActive:        req.IsActive,
	}
	if err := h.Locations.Create(location); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, location)
}

func (h *AdminHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	location := &db.Location{
		ID:              id,
		Name:            req.Name,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		HourlyRateCents: req.HourlyRateCents,
		IsActive:        req.IsActive,
	}
	if err := h.Locations.Update(location); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func (h *AdminHandler) DeactivateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	ok, err := h.Locations.SetActive(id, false)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Location not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Location deactivated"})
}
