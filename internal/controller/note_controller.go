package controller

import (
	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/errs"
	"notes-sync-be/internal/mapper"
	"notes-sync-be/internal/pkg/serverutils"
	"notes-sync-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
	mapper      *mapper.NoteMapper
}

func NewNoteController(noteService service.INoteService) INoteController {
	return &noteController{
		noteService: noteService,
		mapper:      mapper.NewNoteMapper(),
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/note/v1")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Patch(":id", c.Update)
	h.Delete(":id", c.Delete)
}

// List serves both list-all and search: a blank q lists everything.
func (c *noteController) List(ctx *fiber.Ctx) error {
	var req dto.SearchNotesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errs.Wrap("request.parse", errs.InvalidArgument, "invalid query", err)
	}

	notes, err := c.noteService.Search(ctx.UserContext(), req.Query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list notes", c.mapper.ToResponses(notes)))
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errs.Wrap("request.parse", errs.InvalidArgument, "invalid request body", err)
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	note, err := c.noteService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create note", c.mapper.ToResponse(note)))
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.Wrap("request.parse", errs.InvalidArgument, "invalid request body", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	note, err := c.noteService.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update note", c.mapper.ToResponse(note)))
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	if err := c.noteService.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete note", nil))
}

func parseId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, errs.Wrap("request.parse", errs.InvalidArgument, "invalid note id", err)
	}
	return id, nil
}
