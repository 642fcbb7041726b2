package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/TheGoldLab/mxgram/pkg/metrics"
	"github.com/TheGoldLab/mxgram/pkg/transport"
	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
)

// maxBodySize bounds request bodies; documents for the largest gram stay
// well below it.
const maxBodySize = 1 << 20

// Server holds the API server state
type Server struct {
	codec   *gram.Codec
	archive GramArchive
	sender  Sender
	sockets *transport.Registry
	config  ServerConfig
	metrics *metrics.Metrics
}

// NewServer creates a new API server. archive and sender may be nil, which
// disables the endpoints that need them.
func NewServer(codec *gram.Codec, archive GramArchive, sender Sender, config ServerConfig, m *metrics.Metrics) *Server {
	if codec == nil {
		codec = gram.Default
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Server{
		codec:   codec,
		archive: archive,
		sender:  sender,
		sockets: transport.NewRegistry(),
		config:  config,
		metrics: m,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]interface{}{
		"status":    "healthy",
		"max_depth": s.codec.MaxDepth(),
		"callables": s.codec.SupportsCallables(),
		"archive":   s.archive != nil,
		"transport": s.sender != nil,
		"sockets":   s.sockets.Len(),
	})
}

// handleEncode godoc
//
//	@Summary		Encode a document
//	@Description	Convert a JSON or msgpack document into gram bytes
//	@Tags			codec
//	@Accept			json,application/msgpack
//	@Produce		octet-stream
//	@Param			format	query		string	false	"Document format (json or msgpack)"
//	@Success		200		{string}	byte
//	@Failure		400		{object}	APIResponse
//	@Router			/encode [post]
//	@Security		ApiKeyAuth
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// handleDecode godoc
//
//	@Summary		Decode a gram
//	@Description	Convert gram bytes into a JSON or msgpack document
//	@Tags			codec
//	@Accept			octet-stream
//	@Produce		json,application/msgpack
//	@Param			format	query		string	false	"Document format (json or msgpack)"
//	@Success		200		{object}	bridge.Document
//	@Failure		400		{object}	APIResponse
//	@Router			/decode [post]
//	@Security		ApiKeyAuth
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	enc, err := s.encoder(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, err := readBody(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := s.unmarshal(body)
	if err != nil {
		sendFailure(w, err)
		return
	}
	s.writeDocument(w, enc, v)
}

// handleInspect godoc
//
//	@Summary		Inspect a gram
//	@Description	List the headers found in a gram buffer. On failure the lines that parsed are returned with the error.
//	@Tags			codec
//	@Accept			octet-stream
//	@Produce		json
//	@Success		200	{object}	InspectResponse
//	@Failure		400	{object}	APIResponse
//	@Router			/inspect [post]
//	@Security		ApiKeyAuth
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var out bytes.Buffer
	err = gram.Describe(&out, body)
	result := InspectResponse{Size: len(body), Lines: splitLines(out.String())}
	if err != nil {
		sendResponse(w, APIResponse{Data: result, Error: err.Error(), Code: gram.ErrorCode(err)}, http.StatusBadRequest)
		return
	}
	sendSuccess(w, result)
}

// handleSend godoc
//
//	@Summary		Send a document
//	@Description	Encode a document and send it as one datagram on the configured transport
//	@Tags			transport
//	@Accept			json,application/msgpack
//	@Produce		json
//	@Param			format	query		string	false	"Document format (json or msgpack)"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		503		{object}	APIResponse
//	@Router			/send [post]
//	@Security		ApiKeyAuth
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		sendError(w, "No transport configured", http.StatusServiceUnavailable)
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
	if err := s.sender.Send(r.Context(), v); err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Gram sent"})
}

// handleListGrams godoc
//
//	@Summary		List archived grams
//	@Description	List received grams, oldest first
//	@Tags			archive
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of grams (default 100)"
//	@Success		200		{object}	APIResponse
//	@Failure		503		{object}	APIResponse
//	@Router			/grams [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListGrams(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		sendError(w, "Archive is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			sendError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.archive.List(limit)
	if err != nil {
		sendFailure(w, err)
		return
	}

	summaries := make([]GramSummary, 0, len(entries))
	for _, e := range entries {
		kind := gram.KindUnsupported.String()
		if h, err := gram.ReadHeader(e.Data); err == nil {
			kind = h.Type.String()
		}
		summaries = append(summaries, GramSummary{
			ID:       e.ID.String(),
			Received: e.ID.Time().UTC(),
			Size:     len(e.Data),
			Kind:     kind,
		})
	}
	sendSuccess(w, map[string]interface{}{"grams": summaries, "count": len(summaries)})
}

// handleGetGram godoc
//
//	@Summary		Get an archived gram
//	@Description	Return an archived gram as a document, or as raw bytes with format=gram
//	@Tags			archive
//	@Produce		json,application/msgpack,octet-stream
//	@Param			id		path		string	true	"Gram id"
//	@Param			format	query		string	false	"Representation (json, msgpack or gram)"
//	@Success		200		{object}	bridge.Document
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Router			/grams/{id} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetGram(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gramID(w, r)
	if !ok {
		return
	}
	enc, err := s.encoder(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.archive.Get(id)
	if err != nil {
		sendFailure(w, err)
		return
	}

	if enc.Name() == "gram" {
		w.Header().Set("Content-Type", enc.ContentType())
		_, _ = w.Write(data)
		return
	}

	v, err := s.unmarshal(data)
	if err != nil {
		sendFailure(w, err)
		return
	}
	s.writeDocument(w, enc, v)
}

// handleDeleteGram godoc
//
//	@Summary		Delete an archived gram
//	@Tags			archive
//	@Produce		json
//	@Param			id	path		string	true	"Gram id"
//	@Success		200	{object}	APIResponse
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Router			/grams/{id} [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleDeleteGram(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gramID(w, r)
	if !ok {
		return
	}
	if err := s.archive.Delete(id); err != nil {
		sendFailure(w, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Gram deleted"})
}

func (s *Server) gramID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	if s.archive == nil {
		sendError(w, "Archive is disabled", http.StatusServiceUnavailable)
		return ksuid.Nil, false
	}
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid gram id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

// encoder returns the document encoder named by the format query parameter
func (s *Server) encoder(r *http.Request) (bridge.Encoder, error) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	return bridge.Lookup(format, s.codec)
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (bridge.Encoder, []byte, bool) {
	enc, err := s.encoder(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	body, err := readBody(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	return enc, body, true
}

func (s *Server) writeDocument(w http.ResponseWriter, enc bridge.Encoder, v gram.Value) {
	doc, err := enc.Encode(v)
	if err != nil {
		sendFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", enc.ContentType())
	_, _ = w.Write(doc)
}

func (s *Server) marshal(v gram.Value) ([]byte, error) {
	start := time.Now()
	data, err := s.codec.Marshal(v)
	s.metrics.RecordCodecOperation("encode", v.Kind().String(), len(data), err, time.Since(start))
	return data, err
}

func (s *Server) unmarshal(data []byte) (gram.Value, error) {
	start := time.Now()
	v, err := s.codec.Unmarshal(data)
	kind := "unknown"
	if v != nil {
		kind = v.Kind().String()
	}
	s.metrics.RecordCodecOperation("decode", kind, len(data), err, time.Since(start))
	return v, err
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodySize)
	}
	return body, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
