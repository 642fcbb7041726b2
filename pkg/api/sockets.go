package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/transport"
	"github.com/go-chi/chi/v5"
)

// maxReceiveWait bounds the timeout_ms a receive request may ask for
const maxReceiveWait = 30 * time.Second

// OpenSocketRequest names the address pair of a UDP socket
type OpenSocketRequest struct {
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// handleListSockets godoc
//
//	@Summary		List UDP sockets
//	@Description	List the sockets opened through the API
//	@Tags			sockets
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/sockets [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListSockets(w http.ResponseWriter, r *http.Request) {
	infos := s.sockets.List()
	sendSuccess(w, map[string]interface{}{"sockets": infos, "count": len(infos)})
}

// handleOpenSocket godoc
//
//	@Summary		Open a UDP socket
//	@Description	Open a socket for the address pair, or return the id of the one already open
//	@Tags			sockets
//	@Accept			json
//	@Produce		json
//	@Param			request	body		OpenSocketRequest	true	"Address pair"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		503		{object}	APIResponse
//	@Router			/sockets [post]
//	@Security		ApiKeyAuth
func (s *Server) handleOpenSocket(w http.ResponseWriter, r *http.Request) {
	var req OpenSocketRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		sendError(w, "Invalid JSON request body", http.StatusBadRequest)
		return
	}
	if req.Local == "" {
		sendError(w, "local address is required", http.StatusBadRequest)
		return
	}

	id, err := s.sockets.Open(req.Local, req.Remote)
	switch {
	case errors.Is(err, transport.ErrTooManySockets):
		sendError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	socket, _ := s.sockets.Socket(id)
	sendSuccess(w, transport.SocketInfo{ID: id, Local: req.Local, Remote: req.Remote, Addr: socket.LocalAddr().String()})
}

// handleSocketSend godoc
//
//	@Summary		Send on a UDP socket
//	@Description	Encode a document and send it as one datagram on the socket
//	@Tags			sockets
//	@Accept			json,application/msgpack
//	@Produce		json
//	@Param			id		path		int		true	"Socket id"
//	@Param			format	query		string	false	"Document format (json or msgpack)"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Router			/sockets/{id}/send [post]
//	@Security		ApiKeyAuth
func (s *Server) handleSocketSend(w http.ResponseWriter, r *http.Request) {
	id, ok := s.socketID(w, r)
	if !ok {
		return
	}
	enc, body, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	v, err := enc.Decode(body)
	if err != nil {
		sendFailure(w, err)
		return
	}
	data, err := s.marshal(v)
	if err != nil {
		sendFailure(w, err)
		return
	}
	if err := s.sockets.Send(r.Context(), id, data); err != nil {
		sendFailure(w, err)
		return
	}
	s.metrics.RecordSent()
	sendSuccess(w, map[string]interface{}{"message": "Gram sent", "size": len(data)})
}

// handleSocketReceive godoc
//
//	@Summary		Receive from a UDP socket
//	@Description	Wait up to timeout_ms for a datagram and return it decoded. Responds 204 when none arrived.
//	@Tags			sockets
//	@Produce		json,application/msgpack
//	@Param			id			path		int		true	"Socket id"
//	@Param			timeout_ms	query		int		false	"How long to wait (default 0)"
//	@Param			format		query		string	false	"Document format (json or msgpack)"
//	@Success		200			{object}	bridge.Document
//	@Success		204
//	@Failure		400			{object}	APIResponse
//	@Failure		404			{object}	APIResponse
//	@Router			/sockets/{id}/receive [get]
//	@Security		ApiKeyAuth
func (s *Server) handleSocketReceive(w http.ResponseWriter, r *http.Request) {
	id, ok := s.socketID(w, r)
	if !ok {
		return
	}
	enc, err := s.encoder(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	wait, err := receiveWait(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	socket, err := s.sockets.Socket(id)
	if err != nil {
		sendFailure(w, err)
		return
	}
	pending, err := socket.Check(wait)
	if err != nil {
		sendFailure(w, err)
		return
	}
	if !pending {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()
	buf := make([]byte, transport.MaxDatagramLength)
	n, err := socket.Receive(ctx, buf)
	if err != nil {
		sendFailure(w, err)
		return
	}
	s.metrics.RecordReceived()

	v, err := s.unmarshal(buf[:n])
	if err != nil {
		sendFailure(w, err)
		return
	}
	s.writeDocument(w, enc, v)
}

// handleCloseSocket godoc
//
//	@Summary		Close a UDP socket
//	@Tags			sockets
//	@Produce		json
//	@Param			id	path		int	true	"Socket id"
//	@Success		200	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Router			/sockets/{id} [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleCloseSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := s.socketID(w, r)
	if !ok {
		return
	}
	if err := s.sockets.Close(id); err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Socket closed"})
}

// handleCloseAllSockets godoc
//
//	@Summary		Close every UDP socket
//	@Tags			sockets
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/sockets [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleCloseAllSockets(w http.ResponseWriter, r *http.Request) {
	n := s.sockets.Len()
	if err := s.sockets.CloseAll(); err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, map[string]interface{}{"message": "Sockets closed", "count": n})
}

func (s *Server) socketID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid socket id", http.StatusBadRequest)
		return 0, false
	}
	if !s.sockets.IsValid(id) {
		sendError(w, fmt.Sprintf("%v: %d", transport.ErrUnknownSocket, id), http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func receiveWait(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("timeout_ms")
	if raw == "" {
		return 0, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("invalid timeout_ms parameter")
	}
	wait := time.Duration(ms) * time.Millisecond
	if wait > maxReceiveWait {
		wait = maxReceiveWait
	}
	return wait, nil
}
