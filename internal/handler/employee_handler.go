package handler

import (
	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

type EmployeeHandler struct {
	service service.EmployeeService
}

func NewEmployeeHandler(s service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{service: s}
}

func (h *EmployeeHandler) GetEmployees(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "list employees", "Invalid bar ID")
	}

	employees, err := h.service.ListEmployees(c.UserContext(), actor(c), barID, c.Query("search"))
	if err != nil {
		return respondError(c, "list employees", err)
	}
	return c.JSON(employees)
}

// CreateEmployee returns the generated login and temporary password once
func (h *EmployeeHandler) CreateEmployee(c *fiber.Ctx) error {
	const action = "create employee"
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, action, "Invalid bar ID")
	}

	var req service.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	created, err := h.service.CreateEmployee(c.UserContext(), actor(c), barID, req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Employee created", "data": created})
}

func (h *EmployeeHandler) UpdateEmployee(c *fiber.Ctx) error {
	const action = "update employee"
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, action, "Invalid bar ID")
	}
	employeeID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, action, "Invalid employee ID")
	}

	var req service.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	employee, err := h.service.UpdateEmployee(c.UserContext(), actor(c), barID, employeeID, req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(fiber.Map{"message": "Employee updated", "data": employee})
}

func (h *EmployeeHandler) DeleteEmployee(c *fiber.Ctx) error {
	const action = "delete employee"
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, action, "Invalid bar ID")
	}
	employeeID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, action, "Invalid employee ID")
	}

	if err := h.service.DeleteEmployee(c.UserContext(), actor(c), barID, employeeID); err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(fiber.Map{"message": "Employee deleted"})
}
