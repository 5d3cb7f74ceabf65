package requestdata

import (
	"context"
	"strings"
)

type requestDataKey struct{}

// RequestData carries the verified caller for one request.
type RequestData struct {
	TokenString string
	OwnerID     string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// OwnerID returns the authenticated owner, or "" when the request is anonymous.
func OwnerID(ctx context.Context) string {
	rd := GetRequestData(ctx)
	if rd == nil {
		return ""
	}
	return strings.TrimSpace(rd.OwnerID)
}
