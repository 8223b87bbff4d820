package coordinator

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"newsingest/internal/entity"
	"newsingest/internal/registry"
	"newsingest/internal/requestid"
)

func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeError(w, http.StatusServiceUnavailable, "dependencies not yet ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleHealthStartup(w http.ResponseWriter, r *http.Request) {
	if s.ready.Load() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
		return
	}
	if time.Since(s.startedAt) > StartupTimeout {
		writeError(w, http.StatusServiceUnavailable, "startup timed out")
		return
	}
	writeError(w, http.StatusServiceUnavailable, "starting")
}

func (s *Server) handleScheduleToday(w http.ResponseWriter, r *http.Request) {
	date := time.Now().Format("2006-01-02")
	s.writeSchedule(w, r, date)
}

func (s *Server) handleScheduleByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	s.writeSchedule(w, r, date)
}

func (s *Server) writeSchedule(w http.ResponseWriter, r *http.Request, date string) {
	sched := s.trigger.GetOrGenerate(r.Context(), date)
	w.Header().Set("X-Schedule-Version", strconv.Itoa(sched.GeneratorVersion))
	writeJSON(w, http.StatusOK, scheduleDTOFrom(sched))
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	s.registry.Sweep()
	records := s.registry.List()
	dtos := make([]InstanceDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, instanceDTOFrom(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InstanceID == "" {
		writeError(w, http.StatusBadRequest, "instance_id is required")
		return
	}
	token, err := s.registry.Register(req.InstanceID, req.EgressIP, req.Meta)
	if err != nil {
		s.logger.Error("register failed", "instance_id", req.InstanceID, "error", err, "request_id", requestid.FromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusOK, RegisterResponse{Token: token})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := s.registry.Heartbeat(req.InstanceID, req.Token); err != nil {
		status := http.StatusInternalServerError
		switch err {
		case registry.ErrUnknownInstance:
			status = http.StatusNotFound
		case registry.ErrBadToken:
			status = http.StatusUnauthorized
		}
		writeError(w, status, err.Error())
		return
	}

	now := time.Now()
	date := now.Format("2006-01-02")
	sched := s.trigger.GetOrGenerate(r.Context(), date)
	slot, ok := sched.SlotFor(now.Hour(), req.InstanceID)

	resp := HeartbeatResponse{
		ServerTimeUTC: now.UTC().Format(time.RFC3339),
		Directive:     DirectiveContinue,
	}
	if ok {
		dto := slotDTOFrom(slot)
		resp.Slot = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeregister(w http.ResponseWriter, r *http.Request) {
	id := entity.CrawlerInstance(r.PathValue("id"))
	if err := s.registry.Deregister(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deregistered"})
}
