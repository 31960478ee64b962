package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"pulse/internal/middleware"
	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already wrote the error response
// and the handler should just return nil.
var errResponseWritten = errors.New("response written")

// authCtx pulls the authenticated identity out of locals. Routes behind
// AuthRequired always have one; the fallback writes a 401 and returns
// errResponseWritten.
func authCtx(c *fiber.Ctx) (models.AuthContext, error) {
	auth, ok := middleware.Auth(c)
	if !ok {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
		return models.AuthContext{}, errResponseWritten
	}
	return auth, nil
}

// parseID reads a positive integer path parameter, writing a 400 response
// itself when the value is malformed.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid " + humanizeParam(param),
		})
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam turns a camelCase route parameter into words for error
// messages, e.g. "userId" -> "user id".
func humanizeParam(param string) string {
	words := splitCamel(param)
	return strings.ToLower(strings.Join(words, " "))
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

const maxPaginationLimit = 100

// parsePagination reads limit/offset query parameters, clamping limit to
// maxPaginationLimit. Malformed values fall back to the defaults.
func parsePagination(c *fiber.Ctx, defaultLimit int) (limit, offset int) {
	limit = c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// handlerErr maps errors to responses, passing errResponseWritten through
// untouched.
func handlerErr(c *fiber.Ctx, err error) error {
	if errors.Is(err, errResponseWritten) {
		return nil
	}
	return models.RespondWithError(c, err)
}
