package controller

import (
	"bufio"
	"time"

	"bigsis-chat/internal/dto"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/internal/pkg/serverutils"
	"bigsis-chat/internal/service"
	"bigsis-chat/pkg/stream"

	"github.com/gofiber/fiber/v2"
)

// splitOffsets cut each written line at uneven byte offsets so clients see
// lines, and multi-byte characters, straddling network writes.
var splitOffsets = []int{5, 13, 2, 21, 8}

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	Diagnostic(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IStubBrainService
	logger  logger.ILogger
	delay   time.Duration
}

// NewChatbotController serves scripted diagnostic streams. delay is slept
// between written events.
func NewChatbotController(service service.IStubBrainService, sysLogger logger.ILogger, delay time.Duration) IChatbotController {
	return &chatbotController{service: service, logger: sysLogger, delay: delay}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("/diagnostic", c.Diagnostic)
}

func (c *chatbotController) Diagnostic(ctx *fiber.Ctx) error {
	var req dto.DiagnosticChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	events, err := c.service.Respond(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	lines := make([][]byte, 0, len(events))
	for _, ev := range events {
		line, err := stream.EncodeLine(ev)
		if err != nil {
			return err
		}
		lines = append(lines, append(line, '\n'))
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	delay := c.delay
	sysLogger := c.logger
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		n := 0
		for _, line := range lines {
			for len(line) > 0 {
				size := splitOffsets[n%len(splitOffsets)]
				n++
				if size > len(line) {
					size = len(line)
				}
				if _, err := w.Write(line[:size]); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					sysLogger.Debug(logger.ModuleStub, "Client went away mid-stream", map[string]interface{}{
						"error": err.Error(),
					})
					return
				}
				line = line[size:]
			}
			if delay > 0 {
				time.Sleep(delay)
			}
		}
	})
	return nil
}
