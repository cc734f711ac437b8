package service

import (
	"context"
	"testing"

	"sitebooks/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalaryPayments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	employeeRepo := repository.NewEmployeeRepository(f.db)
	salaryRepo := repository.NewSalaryRepository(f.db)
	employees := NewEmployeeService(employeeRepo, salaryRepo, f.projects, f.audits, f.txm, f.feed)
	salaries := NewSalaryService(salaryRepo, employeeRepo, f.audits, f.txm, f.feed)

	emp, err := employees.CreateEmployee(ctx, "", EmployeeRequest{Name: "سعيد", JobTitle: "نجار", BaseSalary: dec("3000")})
	require.NoError(t, err)
	assert.True(t, emp.Active)

	payment, err := salaries.CreatePayment(ctx, "", SalaryRequest{
		EmployeeID: emp.ID.String(), Period: "2024-05",
		BaseAmount: dec("3000"), Allowances: dec("250"), Deductions: dec("100"),
	})
	require.NoError(t, err)
	assert.True(t, dec("3150").Equal(payment.NetAmount), payment.NetAmount.String())
	assert.True(t, f.rec.touched(PathSalaries))

	_, err = salaries.CreatePayment(ctx, "", SalaryRequest{EmployeeID: emp.ID.String(), Period: "2024-05", BaseAmount: dec("1")})
	assert.ErrorIs(t, err, ErrConflict)

	updated, err := salaries.UpdatePayment(ctx, "", payment.ID.String(), SalaryRequest{
		EmployeeID: emp.ID.String(), Period: "2024-05", BaseAmount: dec("3000"),
	})
	require.NoError(t, err)
	assert.True(t, dec("3000").Equal(updated.NetAmount))

	invalidRequests := []SalaryRequest{
		{EmployeeID: emp.ID.String(), Period: "2024-13", BaseAmount: dec("1")},
		{EmployeeID: emp.ID.String(), Period: "May 2024", BaseAmount: dec("1")},
		{EmployeeID: emp.ID.String(), Period: "2024-06", BaseAmount: dec("100"), Deductions: dec("101")},
		{EmployeeID: emp.ID.String(), Period: "2024-06", BaseAmount: dec("-1")},
		{EmployeeID: "x", Period: "2024-06"},
	}
	for _, req := range invalidRequests {
		_, err := salaries.CreatePayment(ctx, "", req)
		assert.ErrorIs(t, err, ErrValidation, "%+v", req)
	}

	list, total, err := salaries.ListPayments(ctx, emp.ID.String(), "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Employee)
	assert.Equal(t, "سعيد", list[0].Employee.Name)

	assert.ErrorIs(t, employees.DeleteEmployee(ctx, "", emp.ID.String()), ErrProtected)

	require.NoError(t, salaries.DeletePayment(ctx, "", payment.ID.String()))
	require.NoError(t, employees.DeleteEmployee(ctx, "", emp.ID.String()))
}

func TestEmployeeDeactivate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	employeeRepo := repository.NewEmployeeRepository(f.db)
	employees := NewEmployeeService(employeeRepo, repository.NewSalaryRepository(f.db), f.projects, f.audits, f.txm, f.feed)

	emp, err := employees.CreateEmployee(ctx, "", EmployeeRequest{Name: "خالد"})
	require.NoError(t, err)
	_, err = employees.CreateEmployee(ctx, "", EmployeeRequest{Name: "منير"})
	require.NoError(t, err)

	inactive := false
	_, err = employees.UpdateEmployee(ctx, "", emp.ID.String(), EmployeeRequest{Name: "خالد", Active: &inactive})
	require.NoError(t, err)

	list, total, err := employees.ListEmployees(ctx, "", true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "منير", list[0].Name)

	_, err = employees.CreateEmployee(ctx, "", EmployeeRequest{Name: "x", ProjectID: "00000000-0000-0000-0000-000000000001"})
	assert.ErrorIs(t, err, ErrNotFound)
}
