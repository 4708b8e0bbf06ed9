package rest

import "context"

type ctxKeyUserID struct{}
type ctxKeyRole struct{}

type AuthContext struct {
	UserID int64
	Role   string
}

func withAuth(ctx context.Context, a AuthContext) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID{}, a.UserID)
	ctx = context.WithValue(ctx, ctxKeyRole{}, a.Role)
	return ctx
}

func GetAuth(ctx context.Context) (AuthContext, bool) {
	uid, ok := ctx.Value(ctxKeyUserID{}).(int64)
	if !ok {
		return AuthContext{}, false
	}
	role, _ := ctx.Value(ctxKeyRole{}).(string)

	return AuthContext{UserID: uid, Role: role}, true
}
