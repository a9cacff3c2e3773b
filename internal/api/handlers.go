package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"nodestore/internal/logger"
	"nodestore/internal/store"

	"github.com/oapi-codegen/runtime"
)

var statusOK = map[string]string{"status": "ok"}

type errorResponse struct {
	Detail string `json:"detail"`
}

type stringRequest struct {
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

type listPushRequest struct {
	Key    *string  `json:"key"`
	Values []string `json:"values"`
}

type setRequest struct {
	Key     *string  `json:"key"`
	Members []string `json:"members"`
}

type hashRequest struct {
	Key    *string           `json:"key"`
	Field  *string           `json:"field,omitempty"`
	Value  *string           `json:"value,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type zsetRequest struct {
	Key     *string            `json:"key"`
	Members map[string]float64 `json:"members"`
}

type scoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warnf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// decodeBody reads a JSON body into dst and checks that key was supplied
func decodeBody(r *http.Request, dst interface{}, key func() *string) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if key() == nil {
		return errors.New("key is required")
	}
	return nil
}

// bindQuery binds a form-style query parameter into dest. Required
// parameters take a plain pointer; optional ones take a pointer to a
// pointer that stays nil when the parameter is absent.
func bindQuery(r *http.Request, name string, required bool, dest interface{}) error {
	return runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	var v *int
	if err := bindQuery(r, name, false, &v); err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}

func queryBool(r *http.Request, name string, def bool) (bool, error) {
	var v *bool
	if err := bindQuery(r, name, false, &v); err != nil {
		return false, err
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}

// rangeQuery reads the key plus the start/end pair shared by list and
// sorted set reads. end defaults to -1, the tail.
func rangeQuery(r *http.Request) (key string, start, end int, err error) {
	if err = bindQuery(r, "key", true, &key); err != nil {
		return
	}
	if start, err = queryInt(r, "start", 0); err != nil {
		return
	}
	end, err = queryInt(r, "end", -1)
	return
}

// badRequest writes a 400 and counts the rejection
func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.stats.RecordRejected()
	writeError(w, http.StatusBadRequest, err.Error())
}

func toStrings(values [][]byte) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func toBytes(values []string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var keys int
	s.withStore(func(db *store.Store) { keys = db.Len() })
	writeJSON(w, http.StatusOK, s.stats.Snapshot(keys))
}

// Strings

func (s *Server) handleStringSet(w http.ResponseWriter, r *http.Request) {
	var req stringRequest
	if err := decodeBody(r, &req, func() *string { return req.Key }); err != nil {
		s.badRequest(w, err)
		return
	}
	if req.Value == nil {
		s.badRequest(w, errors.New("value is required"))
		return
	}

	s.withStore(func(db *store.Store) { db.Set([]byte(*req.Key), []byte(*req.Value)) })
	s.stats.RecordCommand("SET")
	writeJSON(w, http.StatusOK, statusOK)
}

func (s *Server) handleStringGet(w http.ResponseWriter, r *http.Request) {
	var key string
	if err := bindQuery(r, "key", true, &key); err != nil {
		s.badRequest(w, err)
		return
	}

	var (
		value []byte
		found bool
	)
	s.withStore(func(db *store.Store) { value, found = db.Get([]byte(key)) })
	s.stats.RecordCommand("GET")
	s.stats.RecordLookup(found)

	if !found {
		writeError(w, http.StatusNotFound, "Key not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": string(value)})
}

// Lists

type pushSide int

const (
	pushFront pushSide = iota
	pushBack
)

func (s *Server) handleListPush(side pushSide) http.HandlerFunc {
	method := "LPUSH"
	if side == pushBack {
		method = "RPUSH"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req listPushRequest
		if err := decodeBody(r, &req, func() *string { return req.Key }); err != nil {
			s.badRequest(w, err)
			return
		}
		if len(req.Values) == 0 {
			s.badRequest(w, errors.New("at least one value is required"))
			return
		}

		var size int
		s.withStore(func(db *store.Store) {
			if side == pushFront {
				size = db.LPush([]byte(*req.Key), toBytes(req.Values)...)
			} else {
				size = db.RPush([]byte(*req.Key), toBytes(req.Values)...)
			}
		})
		s.stats.RecordCommand(method)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"method": method,
			"key":    *req.Key,
			"values": req.Values,
			"size":   size,
		})
	}
}

func (s *Server) handleListRange(w http.ResponseWriter, r *http.Request) {
	key, start, end, err := rangeQuery(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	var values [][]byte
	s.withStore(func(db *store.Store) { values = db.LRange([]byte(key), start, end) })
	s.stats.RecordCommand("LRANGE")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":    key,
		"range":  []int{start, end},
		"values": toStrings(values),
	})
}

// Sets

func (s *Server) handleSetAdd(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := decodeBody(r, &req, func() *string { return req.Key }); err != nil {
		s.badRequest(w, err)
		return
	}
	if len(req.Members) == 0 {
		s.badRequest(w, errors.New("at least one member is required"))
		return
	}

	var added int
	s.withStore(func(db *store.Store) { added = db.SAdd([]byte(*req.Key), toBytes(req.Members)...) })
	s.stats.RecordCommand("SADD")

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "added": added})
}

func (s *Server) handleSetMembers(w http.ResponseWriter, r *http.Request) {
	var key string
	if err := bindQuery(r, "key", true, &key); err != nil {
		s.badRequest(w, err)
		return
	}

	var members [][]byte
	s.withStore(func(db *store.Store) { members = db.SMembers([]byte(key)) })
	s.stats.RecordCommand("SMEMBERS")

	writeJSON(w, http.StatusOK, map[string]interface{}{"key": key, "members": toStrings(members)})
}

// Hashes

func (s *Server) handleHashSet(w http.ResponseWriter, r *http.Request) {
	var req hashRequest
	if err := decodeBody(r, &req, func() *string { return req.Key }); err != nil {
		s.badRequest(w, err)
		return
	}

	var write store.HashWrite
	if req.Field != nil {
		write.Field = []byte(*req.Field)
	}
	if req.Value != nil {
		write.Value = []byte(*req.Value)
	}
	if req.Fields != nil {
		write.Fields = make(map[string][]byte, len(req.Fields))
		for f, v := range req.Fields {
			write.Fields[f] = []byte(v)
		}
	}

	var (
		created int
		err     error
	)
	s.withStore(func(db *store.Store) { created, err = db.HSetRequest([]byte(*req.Key), write) })
	if errors.Is(err, store.ErrInvalidArgument) {
		s.badRequest(w, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.stats.RecordCommand("HSET")

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "created": created})
}

func (s *Server) handleHashGet(w http.ResponseWriter, r *http.Request) {
	var (
		key   string
		field *string
	)
	if err := bindQuery(r, "key", true, &key); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := bindQuery(r, "field", false, &field); err != nil {
		s.badRequest(w, err)
		return
	}

	if field != nil && *field != "" {
		var (
			value []byte
			found bool
		)
		s.withStore(func(db *store.Store) { value, found = db.HGet([]byte(key), []byte(*field)) })
		s.stats.RecordCommand("HGET")
		s.stats.RecordLookup(found)

		if !found {
			writeError(w, http.StatusNotFound, "Field not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"field": *field, "value": string(value)})
		return
	}

	var fields map[string][]byte
	s.withStore(func(db *store.Store) { fields = db.HGetAll([]byte(key)) })
	s.stats.RecordCommand("HGETALL")

	out := make(map[string]string, len(fields))
	for f, v := range fields {
		out[f] = string(v)
	}
	writeJSON(w, http.StatusOK, out)
}

// Sorted sets

func (s *Server) handleZSetAdd(w http.ResponseWriter, r *http.Request) {
	var req zsetRequest
	if err := decodeBody(r, &req, func() *string { return req.Key }); err != nil {
		s.badRequest(w, err)
		return
	}
	if len(req.Members) == 0 {
		s.badRequest(w, errors.New("at least one member is required"))
		return
	}

	var (
		added int
		err   error
	)
	s.withStore(func(db *store.Store) { added, err = db.ZAdd([]byte(*req.Key), req.Members) })
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.stats.RecordCommand("ZADD")

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "added": added})
}

func (s *Server) handleZSetRange(w http.ResponseWriter, r *http.Request) {
	key, start, end, err := rangeQuery(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	withScores, err := queryBool(r, "withscores", true)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.stats.RecordCommand("ZRANGE")

	if !withScores {
		var members [][]byte
		s.withStore(func(db *store.Store) { members = db.ZRange([]byte(key), start, end) })
		writeJSON(w, http.StatusOK, map[string]interface{}{"members": toStrings(members)})
		return
	}

	var entries []store.ScoredMember
	s.withStore(func(db *store.Store) { entries = db.ZRangeWithScores([]byte(key), start, end) })
	out := make([]scoredMember, len(entries))
	for i, e := range entries {
		out[i] = scoredMember{Member: string(e.Member), Score: e.Score}
	}
	writeJSON(w, http.StatusOK, out)
}

// Keys

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var key string
	if err := bindQuery(r, "key", true, &key); err != nil {
		s.badRequest(w, err)
		return
	}

	var deleted int
	s.withStore(func(db *store.Store) { deleted = db.Delete([]byte(key)) })
	s.stats.RecordCommand("DEL")

	writeJSON(w, http.StatusOK, map[string]interface{}{"key": key, "deleted": deleted})
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	var key string
	if err := bindQuery(r, "key", true, &key); err != nil {
		s.badRequest(w, err)
		return
	}

	var kind store.Kind
	s.withStore(func(db *store.Store) { kind = db.Type([]byte(key)) })
	s.stats.RecordCommand("TYPE")

	writeJSON(w, http.StatusOK, map[string]string{"key": key, "type": kind.String()})
}
