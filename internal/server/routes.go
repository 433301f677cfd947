/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	ws "nhooyr.io/websocket"

	"github.com/friendsincode/newscast/internal/audio"
	"github.com/friendsincode/newscast/internal/events"
	"github.com/friendsincode/newscast/internal/logbuffer"
	"github.com/friendsincode/newscast/internal/models"
	"github.com/friendsincode/newscast/internal/render"
	"github.com/friendsincode/newscast/internal/version"
)

//go:embed preview.html
var previewPage []byte

func (s *Server) configureRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ws", s.handleEventFeed)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/broadcast", s.handleSetBroadcast)
		r.Get("/state", s.handleState)
		r.Post("/play", s.handlePlay)
		r.Post("/stop", s.handleStop)
		r.Get("/master.wav", s.handleMasterWAV)
		r.Post("/render", s.handleRender)
		r.Get("/logs", s.handleLogs)
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logBuf == nil {
		writeJSON(w, http.StatusOK, []logbuffer.Entry{})
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	writeJSON(w, http.StatusOK, s.logBuf.Recent(n))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(previewPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

// handleSetBroadcast installs a broadcast from the request body and
// builds its live controller. Decode failures still answer 200 with
// ready=false; the broadcast is installed but inert, matching the
// terminal-initialization-failure policy.
func (s *Server) handleSetBroadcast(w http.ResponseWriter, r *http.Request) {
	var b models.Broadcast
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid broadcast payload")
		return
	}
	ctrl := s.SetBroadcast(&b)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    b.ID,
		"ready": ctrl.Ready(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl, b := s.current()
	if ctrl == nil {
		writeJSON(w, http.StatusOK, map[string]any{"loaded": false})
		return
	}

	state := map[string]any{
		"loaded":   true,
		"id":       b.ID,
		"ready":    ctrl.Ready(),
		"phase":    string(ctrl.Phase()),
		"position": ctrl.Position(),
	}
	if p := ctrl.Prepared(); p != nil {
		state["total"] = p.Schedule.TotalSec
		state["captions"] = b.Config.CaptionsEnabled
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	ctrl, _ := s.current()
	if ctrl == nil {
		writeError(w, http.StatusConflict, "no broadcast loaded")
		return
	}
	if !ctrl.Ready() {
		writeError(w, http.StatusConflict, "broadcast failed to initialize")
		return
	}
	ctrl.Play()
	writeJSON(w, http.StatusOK, map[string]string{"phase": string(ctrl.Phase())})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	ctrl, _ := s.current()
	if ctrl == nil {
		writeError(w, http.StatusConflict, "no broadcast loaded")
		return
	}
	ctrl.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"phase": string(ctrl.Phase())})
}

// handleMasterWAV streams the prepared master track. The page plays
// this as its audio source so the audible mix matches the rendered one.
func (s *Server) handleMasterWAV(w http.ResponseWriter, r *http.Request) {
	ctrl, _ := s.current()
	if ctrl == nil || !ctrl.Ready() {
		writeError(w, http.StatusNotFound, "no prepared broadcast")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	if err := audio.EncodeWAV(w, ctrl.Prepared().Master); err != nil {
		s.logger.Warn().Err(err).Msg("master stream aborted")
	}
}

// handleRender starts an offline render of the loaded broadcast. One
// render at a time; the result is published when finished and progress
// is observable on the event feed.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	_, b := s.current()
	if b == nil {
		writeError(w, http.StatusConflict, "no broadcast loaded")
		return
	}
	if s.engine.Busy() {
		writeError(w, http.StatusConflict, "render already in progress")
		return
	}

	out := s.publisher.Destination(b)
	go func() {
		ctx := context.Background()
		if err := s.engine.Render(ctx, b, out); err != nil {
			if err != render.ErrBusy {
				s.logger.Error().Err(err).Msg("render failed")
			}
			return
		}
		if _, err := s.publisher.Publish(ctx, b, out); err != nil {
			s.logger.Error().Err(err).Msg("publish failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"out": out})
}

// feedEventTypes are the bus events forwarded to the preview page.
var feedEventTypes = []events.EventType{
	events.EventPhaseChange,
	events.EventClipCommand,
	events.EventCaption,
	events.EventStopped,
	events.EventRenderStarted,
	events.EventRenderProgress,
	events.EventRenderFinished,
	events.EventRenderFailed,
	events.EventPublished,
}

type feedMessage struct {
	Type string         `json:"type"`
	Data events.Payload `json:"data"`
}

// handleEventFeed upgrades to a websocket and forwards bus events as
// JSON messages until the client goes away.
func (s *Server) handleEventFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	ctx := r.Context()
	merged := make(chan feedMessage, 64)
	for _, et := range feedEventTypes {
		sub := s.bus.Subscribe(et)
		defer s.bus.Unsubscribe(et, sub)
		go func(et events.EventType, sub events.Subscriber) {
			for payload := range sub {
				select {
				case merged <- feedMessage{Type: string(et), Data: payload}:
				case <-ctx.Done():
					return
				}
			}
		}(et, sub)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-merged:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, ws.MessageText, data); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
