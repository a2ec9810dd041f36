package httpapi

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockcount/internal/csvio"
	"github.com/mesh-intelligence/stockcount/internal/inventory"
	"github.com/mesh-intelligence/stockcount/internal/view"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

type handler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

type branchRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type productRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type countRequest struct {
	PhysicalCount *int `json:"physicalCount"`
	SystemCount   *int `json:"systemCount"`
}

type updateProductResponse struct {
	Inventory []types.InventoryItem `json:"inventory"`
}

// importResponse reports "(N updated, M skipped)"; Error is set when
// nothing was applied.
type importResponse struct {
	Updated []types.InventoryItem `json:"updated"`
	Skipped int                   `json:"skipped"`
	Error   string                `json:"error,omitempty"`
}

func (h *handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handler) snapshot(c *fiber.Ctx) error {
	snap, err := h.svc.Snapshot(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (h *handler) createBranch(c *fiber.Ctx) error {
	var body branchRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.CreateBranch(c.UserContext(), body.Name, body.Location)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *handler) deleteBranch(c *fiber.Ctx) error {
	if err := h.svc.DeleteBranch(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) branchInventory(c *fiber.Ctx) error {
	sortKey, err := view.ParseSort(c.Query("sort"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	page, err := h.svc.Inventory(c.UserContext(), view.Query{
		BranchID:          c.Params("id"),
		Search:            c.Query("search"),
		Sort:              sortKey,
		Desc:              c.QueryBool("desc"),
		OnlyDiscrepancies: c.QueryBool("discrepancies"),
		Page:              c.QueryInt("page", 1),
		PageSize:          c.QueryInt("pageSize", view.DefaultPageSize),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *handler) importCounts(c *fiber.Ctx) error {
	mode, err := csvio.ParseMode(c.Query("mode"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	payload, err := payloadOf(c)
	if err != nil {
		return err
	}

	res, err := h.svc.ImportCounts(c.UserContext(), c.Params("id"), payload, mode)
	if errors.Is(err, types.ErrNoValidRows) && res != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(importResponse{
			Updated: res.Updated, Skipped: res.Skipped, Error: err.Error(),
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(importResponse{Updated: res.Updated, Skipped: res.Skipped})
}

func (h *handler) exportTemplate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.svc.Branch(c.UserContext(), id); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(fmt.Sprintf("template-%s.csv", id))
	return h.svc.ExportTemplate(c.UserContext(), c, id)
}

func (h *handler) createProduct(c *fiber.Ctx) error {
	var body productRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.CreateProduct(c.UserContext(), body.Code, body.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *handler) importProducts(c *fiber.Ctx) error {
	payload, err := payloadOf(c)
	if err != nil {
		return err
	}
	res, err := h.svc.ImportProducts(c.UserContext(), payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *handler) updateProduct(c *fiber.Ctx) error {
	var body productRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	items, err := h.svc.UpdateProduct(c.UserContext(), types.Product{
		ID:          c.Params("id"),
		Code:        body.Code,
		Description: body.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(updateProductResponse{Inventory: items})
}

func (h *handler) deleteProduct(c *fiber.Ctx) error {
	if err := h.svc.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) admitItem(c *fiber.Ctx) error {
	var body types.ItemInput
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.AdmitItem(c.UserContext(), body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *handler) recordCount(c *fiber.Ctx) error {
	var body countRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	var msgs []string
	if body.PhysicalCount == nil {
		msgs = append(msgs, "physical count is required")
	}
	if body.SystemCount == nil {
		msgs = append(msgs, "system count is required")
	}
	if err := types.NewValidationError(msgs...); err != nil {
		return err
	}

	item, err := h.svc.RecordCount(c.UserContext(), c.Params("id"), *body.PhysicalCount, *body.SystemCount)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (h *handler) activity(c *fiber.Ctx) error {
	return c.JSON(h.svc.Activity())
}

func (h *handler) clearActivity(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"cleared": h.svc.ClearActivity()})
}

func (h *handler) exportActivity(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment("activity.csv")
	return h.svc.ExportLog(c)
}

// payloadOf returns the CSV text of a request: the "file" field of a
// multipart form, or the raw body otherwise.
func payloadOf(c *fiber.Ctx) (string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", fmt.Errorf("opening upload: %w", err)
		}
		defer f.Close()
		buf := make([]byte, fh.Size)
		if _, err := io.ReadFull(f, buf); err != nil {
			return "", fmt.Errorf("reading upload: %w", err)
		}
		return string(buf), nil
	}
	return string(c.Body()), nil
}
