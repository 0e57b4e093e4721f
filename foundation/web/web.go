// Package web is a thin framework layer on top of gin. Handlers receive a
// *Context and return an error; middleware wraps handlers before they are
// attached to the engine.
package web

import (
	"log"

	"github.com/gin-gonic/gin"
)

// Handler is the signature every application handler implements.
type Handler func(c *Context) error

// Middleware runs code before or after a Handler.
type Middleware func(Handler) Handler

type App struct {
	*gin.Engine
	mw []Middleware
}

func NewApp(mw ...Middleware) *App {
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &App{Engine: engine, mw: mw}
}

func (a *App) handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrapMiddleware(mw, handler)
	handler = wrapMiddleware(a.mw, handler)

	a.Engine.Handle(method, path, func(gc *gin.Context) {
		c := NewContext(gc)
		if err := handler(c); err != nil {
			// RespondError has already written the response for *Error
			// values; anything reaching here is unexpected.
			log.Println("handler error:", err)
		}
	})
}

func (a *App) Get(path string, handler Handler, mw ...Middleware) {
	a.handle("GET", path, handler, mw...)
}

func (a *App) Post(path string, handler Handler, mw ...Middleware) {
	a.handle("POST", path, handler, mw...)
}

func (a *App) Put(path string, handler Handler, mw ...Middleware) {
	a.handle("PUT", path, handler, mw...)
}

func (a *App) Patch(path string, handler Handler, mw ...Middleware) {
	a.handle("PATCH", path, handler, mw...)
}

func (a *App) Delete(path string, handler Handler, mw ...Middleware) {
	a.handle("DELETE", path, handler, mw...)
}

func (a *App) Head(path string, handler Handler, mw ...Middleware) {
	a.handle("HEAD", path, handler, mw...)
}

func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}

	return handler
}
