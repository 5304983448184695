package controllers

import (
	"academica_go/config"
	"academica_go/database"
	"academica_go/middleware"
	"academica_go/models"
	"academica_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// validateToken checks the JWT passed in the query string. The upgrade request
// cannot carry an Authorization header from browsers, so the token rides along
// as ?token=.
func (wsc *WebSocketController) validateToken(tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*middleware.Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrInvalidKey
	}

	var user models.User
	err = database.DB.Scopes(database.WithinOrg(claims.OrgID)).
		Where("id = ? AND status = ?", claims.UserID, "active").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// WebSocketHandler returns a Fiber WebSocket handler that validates the token
// and attaches the connection to the hub.
func (wsc *WebSocketController) WebSocketHandler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("WebSocket handler panic: %v", r)
			}
		}()

		token := c.Query("token")
		if token == "" {
			c.WriteMessage(fiberws.CloseMessage, []byte("Missing token"))
			c.Close()
			return
		}

		user, err := wsc.validateToken(token)
		if err != nil {
			c.WriteMessage(fiberws.CloseMessage, []byte("Invalid token"))
			c.Close()
			return
		}

		// Blocks until the connection closes
		wsc.hub.ServeFiberWS(c, user.ID)
	})
}

// GetWebSocketStats reports the current connection count
func (wsc *WebSocketController) GetWebSocketStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wsc.hub.GetClientCount(),
	})
}
