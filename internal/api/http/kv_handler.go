package http

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/amakane-hakari/clist/internal/list"
)

// Store は HTTP から扱うリストです。
type Store = list.List[uint64, uint64]

// kvHandler は List への操作を HTTP に公開します。
// 点操作・バルク操作は mu の読み取り側、Clear・走査・ワーカー数変更は書き込み側で排他します。
type kvHandler struct {
	mu      sync.RWMutex
	st      *Store
	maxBody int64
}

func (h *kvHandler) mount(r chi.Router) {
	r.Route("/kvs", func(r chi.Router) {
		r.Method(http.MethodGet, "/", HandlerFunc(h.list))
		r.Method(http.MethodDelete, "/", HandlerFunc(h.clear))
		r.Method(http.MethodPost, "/_bulk", HandlerFunc(h.bulkInsert))
		r.Method(http.MethodPost, "/_find", HandlerFunc(h.bulkFind))
		r.Method(http.MethodPut, "/{key}", HandlerFunc(h.put))
		r.Method(http.MethodGet, "/{key}", HandlerFunc(h.get))
	})
	r.Method(http.MethodPut, "/config/workers", HandlerFunc(h.setWorkers))
}

type valueRequest struct {
	Value *uint64 `json:"value"`
}

type entryDTO struct {
	Key   uint64 `json:"key"`
	Value uint64 `json:"value"`
}

type bulkInsertRequest struct {
	Pairs []entryDTO `json:"pairs"`
}

type bulkInsertResponse struct {
	Inserted int `json:"inserted"`
	Size     int `json:"size"`
}

type findRequest struct {
	Keys []uint64 `json:"keys"`
}

type findResultDTO struct {
	Key   uint64  `json:"key"`
	Value *uint64 `json:"value,omitempty"`
	Found bool    `json:"found"`
}

type listResponse struct {
	Size    int        `json:"size"`
	Nodes   []int      `json:"nodes"`
	Entries []entryDTO `json:"entries"`
}

type workersRequest struct {
	Workers int `json:"workers"`
}

type workersResponse struct {
	Workers int `json:"workers"`
}

func parseKey(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "key")
	if raw == "" {
		return 0, BadRequest("empty key")
	}
	k, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, BadRequest("key must be an unsigned integer")
	}
	return k, nil
}

func (h *kvHandler) put(w http.ResponseWriter, r *http.Request) error {
	key, err := parseKey(r)
	if err != nil {
		return err
	}
	var req valueRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		return err
	}
	if req.Value == nil {
		return BadRequest("value is required")
	}

	h.mu.RLock()
	err = h.st.Insert(key, *req.Value)
	h.mu.RUnlock()
	if err != nil {
		return err
	}
	writeSuccess(w, http.StatusOK, entryDTO{Key: key, Value: *req.Value})
	return nil
}

func (h *kvHandler) get(w http.ResponseWriter, r *http.Request) error {
	key, err := parseKey(r)
	if err != nil {
		return err
	}
	h.mu.RLock()
	v, ok := h.st.Find(key)
	h.mu.RUnlock()
	if !ok {
		return NotFound("key not found")
	}
	writeSuccess(w, http.StatusOK, entryDTO{Key: key, Value: v})
	return nil
}

func (h *kvHandler) bulkInsert(w http.ResponseWriter, r *http.Request) error {
	var req bulkInsertRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		return err
	}
	noteItems(r, len(req.Pairs))
	pairs := make([]list.Pair[uint64, uint64], len(req.Pairs))
	for i, p := range req.Pairs {
		pairs[i] = list.Pair[uint64, uint64]{Key: p.Key, Value: p.Value}
	}

	h.mu.RLock()
	err := h.st.InsertRange(pairs)
	size := h.st.Len()
	h.mu.RUnlock()
	if err != nil {
		return err
	}
	writeSuccess(w, http.StatusOK, bulkInsertResponse{Inserted: len(pairs), Size: size})
	return nil
}

func (h *kvHandler) bulkFind(w http.ResponseWriter, r *http.Request) error {
	var req findRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		return err
	}
	noteItems(r, len(req.Keys))

	h.mu.RLock()
	res, err := h.st.FindRange(req.Keys)
	h.mu.RUnlock()
	if err != nil {
		return err
	}

	out := make([]findResultDTO, len(req.Keys))
	for i, k := range req.Keys {
		out[i] = findResultDTO{Key: k, Found: res[i].Found}
		if res[i].Found {
			v := res[i].Value
			out[i].Value = &v
		}
	}
	writeSuccess(w, http.StatusOK, out)
	return nil
}

func (h *kvHandler) list(w http.ResponseWriter, _ *http.Request) error {
	h.mu.Lock()
	resp := listResponse{
		Size:    h.st.Len(),
		Nodes:   h.st.Occupancy(),
		Entries: make([]entryDTO, 0, h.st.Len()),
	}
	for k, v := range h.st.All() {
		resp.Entries = append(resp.Entries, entryDTO{Key: k, Value: v})
	}
	h.mu.Unlock()

	writeSuccess(w, http.StatusOK, resp)
	return nil
}

func (h *kvHandler) clear(w http.ResponseWriter, _ *http.Request) error {
	h.mu.Lock()
	h.st.Clear()
	h.mu.Unlock()
	writeSuccess(w, http.StatusOK, listResponse{Nodes: []int{0}, Entries: []entryDTO{}})
	return nil
}

func (h *kvHandler) setWorkers(w http.ResponseWriter, r *http.Request) error {
	var req workersRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		return err
	}
	// バルク操作はワーカー数ぶんのタスクを起動するので上限を超える値は受け付けない
	if maxW := h.st.MaxWorkers(); req.Workers < 1 || req.Workers > maxW {
		return NewAppError(http.StatusBadRequest, CodeBadRequest,
			"workers out of range", map[string]int{"min": 1, "max": maxW})
	}
	h.mu.Lock()
	err := h.st.SetWorkers(req.Workers)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	writeSuccess(w, http.StatusOK, workersResponse{Workers: req.Workers})
	return nil
}

func (h *kvHandler) shape() healthResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return healthResponse{
		Nodes:        h.st.NodeCount(),
		PairsPerNode: h.st.PairsPerNode(),
		Workers:      h.st.Workers(),
		MaxWorkers:   h.st.MaxWorkers(),
	}
}
