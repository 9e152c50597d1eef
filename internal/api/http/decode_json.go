package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes はリクエストボディ上限の既定値です。バルク要求を受けるので 8MB です。
const DefaultMaxBodyBytes int64 = 8 << 20

// decodeJSON は上限 limit バイトのリクエストボディを dst にデコードします。
// 上限を超えたボディは途中で切らずに 413 として拒否します。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	if r.Body == nil || r.Body == http.NoBody {
		return InvalidJSON("empty body")
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer func() {
		_ = body.Close()
	}()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		var se *json.SyntaxError
		var ute *json.UnmarshalTypeError
		switch {
		case errors.As(err, &mbe):
			return PayloadTooLarge(mbe.Limit)
		case errors.As(err, &se):
			return InvalidJSON("malformed JSON")
		case errors.As(err, &ute):
			return InvalidJSON("type mismatch in field " + ute.Field)
		case errors.Is(err, io.EOF):
			return InvalidJSON("empty body")
		default:
			return InvalidJSON("invalid JSON")
		}
	}
	// 1 リクエストに JSON は 1 つだけ
	if dec.More() {
		return InvalidJSON("multiple JSON values")
	}
	return nil
}
