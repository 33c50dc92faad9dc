package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/domain/catalog"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/domain/prescription"
	"github.com/opdemr/orderflow/internal/domain/sample"
)

type fakePrescriptionRepo struct {
	prescriptions map[uuid.UUID]*prescription.Prescription
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{prescriptions: make(map[uuid.UUID]*prescription.Prescription)}
}

func (r *fakePrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, prescription.ErrPrescriptionNotFound
	}
	return p, nil
}

func (r *fakePrescriptionRepo) List(_ context.Context, _ *prescription.ListQuery) (*prescription.PagedPrescriptions, error) {
	out := &prescription.PagedPrescriptions{Prescriptions: []*prescription.Prescription{}}
	for _, p := range r.prescriptions {
		out.Prescriptions = append(out.Prescriptions, p)
	}
	out.TotalCount = int64(len(out.Prescriptions))
	return out, nil
}

func (r *fakePrescriptionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status prescription.Status) error {
	p, ok := r.prescriptions[id]
	if !ok {
		return prescription.ErrPrescriptionNotFound
	}
	p.Status = status
	return nil
}

type fakeCatalogRepo struct {
	tests map[uuid.UUID]*catalog.LabTest
	items map[uuid.UUID]*catalog.PharmacyItem
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		tests: make(map[uuid.UUID]*catalog.LabTest),
		items: make(map[uuid.UUID]*catalog.PharmacyItem),
	}
}

func (r *fakeCatalogRepo) GetLabTest(_ context.Context, id uuid.UUID) (*catalog.LabTest, error) {
	t, ok := r.tests[id]
	if !ok {
		return nil, catalog.ErrLabTestNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeCatalogRepo) ListLabTests(_ context.Context, _ *catalog.ListLabTestsQuery) ([]*catalog.LabTest, int64, error) {
	out := make([]*catalog.LabTest, 0, len(r.tests))
	for _, t := range r.tests {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCatalogRepo) LabTestCategories(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, t := range r.tests {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) GetPharmacyItem(_ context.Context, id uuid.UUID) (*catalog.PharmacyItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, catalog.ErrPharmacyItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeCatalogRepo) ListPharmacyItems(_ context.Context, _ *catalog.ListPharmacyItemsQuery) ([]*catalog.PharmacyItem, int64, error) {
	out := make([]*catalog.PharmacyItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, int64(len(out)), nil
}

type fakeLabRepo struct {
	orders      map[uuid.UUID]*laborder.LabOrder
	items       map[uuid.UUID]*laborder.Item     // keyed by order id
	collections map[uuid.UUID]*sample.Collection // keyed by order id
	created     []uuid.UUID                      // creation order
	failTests   map[uuid.UUID]error              // test id -> create error
}

func newFakeLabRepo() *fakeLabRepo {
	return &fakeLabRepo{
		orders:      make(map[uuid.UUID]*laborder.LabOrder),
		items:       make(map[uuid.UUID]*laborder.Item),
		collections: make(map[uuid.UUID]*sample.Collection),
		failTests:   make(map[uuid.UUID]error),
	}
}

func (r *fakeLabRepo) CreateWithCollection(_ context.Context, o *laborder.LabOrder, item *laborder.Item, c *sample.Collection) error {
	if err, ok := r.failTests[o.TestID]; ok {
		return err
	}
	o.ID = uuid.New()
	item.OrderID = o.ID
	c.OrderID = o.ID
	r.orders[o.ID] = o
	r.items[o.ID] = item
	r.collections[o.ID] = c
	r.created = append(r.created, o.ID)
	return nil
}

func (r *fakeLabRepo) GetByID(_ context.Context, id uuid.UUID) (*laborder.LabOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, laborder.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeLabRepo) GetDetail(_ context.Context, id uuid.UUID) (*laborder.OrderDetail, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, laborder.ErrOrderNotFound
	}
	return &laborder.OrderDetail{Order: o, Item: r.items[id], Collection: r.collections[id]}, nil
}

func (r *fakeLabRepo) ListByPrescription(_ context.Context, prescriptionID uuid.UUID) ([]*laborder.OrderDetail, error) {
	out := []*laborder.OrderDetail{}
	for _, id := range r.created {
		o := r.orders[id]
		if o.PrescriptionID == prescriptionID {
			out = append(out, &laborder.OrderDetail{Order: o, Item: r.items[id], Collection: r.collections[id]})
		}
	}
	return out, nil
}

func (r *fakeLabRepo) List(_ context.Context, _ *laborder.ListQuery) (*laborder.PagedOrders, error) {
	out := &laborder.PagedOrders{Orders: []*laborder.LabOrder{}}
	for _, id := range r.created {
		out.Orders = append(out.Orders, r.orders[id])
	}
	out.TotalCount = int64(len(out.Orders))
	return out, nil
}

func (r *fakeLabRepo) HasActiveForTest(_ context.Context, prescriptionID, testID uuid.UUID) (bool, error) {
	for _, o := range r.orders {
		if o.PrescriptionID == prescriptionID && o.TestID == testID && o.Status != laborder.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLabRepo) UpdateStatus(_ context.Context, id uuid.UUID, status laborder.Status, cascade bool) error {
	o, ok := r.orders[id]
	if !ok {
		return laborder.ErrOrderNotFound
	}
	o.Status = status
	if item, ok := r.items[id]; ok {
		item.Status = status
	}
	if cascade {
		if c, ok := r.collections[id]; ok && c.Status != sample.StatusCompleted {
			c.Status = sample.StatusCompleted
		}
	}
	return nil
}

func (r *fakeLabRepo) UpdatePayment(_ context.Context, id uuid.UUID, p laborder.PaymentUpdate) error {
	o, ok := r.orders[id]
	if !ok {
		return laborder.ErrOrderNotFound
	}
	o.PaymentStatus = p.Status
	o.PaidAmount = p.PaidAmount
	if p.Method != "" {
		o.PaymentMethod = p.Method
	}
	if p.Discount != 0 {
		o.Discount = p.Discount
	}
	return nil
}

type fakePharmRepo struct {
	orders map[uuid.UUID]*pharmacyorder.PharmacyOrder
	items  map[uuid.UUID][]*pharmacyorder.Item
}

func newFakePharmRepo() *fakePharmRepo {
	return &fakePharmRepo{
		orders: make(map[uuid.UUID]*pharmacyorder.PharmacyOrder),
		items:  make(map[uuid.UUID][]*pharmacyorder.Item),
	}
}

func (r *fakePharmRepo) CreateWithItems(_ context.Context, o *pharmacyorder.PharmacyOrder, items []*pharmacyorder.Item) error {
	o.ID = uuid.New()
	for _, item := range items {
		item.OrderID = o.ID
	}
	r.orders[o.ID] = o
	r.items[o.ID] = items
	return nil
}

func (r *fakePharmRepo) GetByID(_ context.Context, id uuid.UUID) (*pharmacyorder.PharmacyOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, pharmacyorder.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakePharmRepo) GetDetail(_ context.Context, id uuid.UUID) (*pharmacyorder.OrderDetail, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, pharmacyorder.ErrOrderNotFound
	}
	return &pharmacyorder.OrderDetail{Order: o, Items: r.items[id]}, nil
}

func (r *fakePharmRepo) GetByPrescription(_ context.Context, prescriptionID uuid.UUID) (*pharmacyorder.OrderDetail, error) {
	for id, o := range r.orders {
		if o.PrescriptionID == prescriptionID {
			return &pharmacyorder.OrderDetail{Order: o, Items: r.items[id]}, nil
		}
	}
	return nil, pharmacyorder.ErrOrderNotFound
}

func (r *fakePharmRepo) List(_ context.Context, _ *pharmacyorder.ListQuery) (*pharmacyorder.PagedOrders, error) {
	out := &pharmacyorder.PagedOrders{Orders: []*pharmacyorder.PharmacyOrder{}}
	for _, o := range r.orders {
		out.Orders = append(out.Orders, o)
	}
	out.TotalCount = int64(len(out.Orders))
	return out, nil
}

func (r *fakePharmRepo) UpdateStatus(_ context.Context, id uuid.UUID, status pharmacyorder.Status) error {
	o, ok := r.orders[id]
	if !ok {
		return pharmacyorder.ErrOrderNotFound
	}
	o.Status = status
	for _, item := range r.items[id] {
		item.Status = status
	}
	return nil
}

func (r *fakePharmRepo) UpdatePayment(_ context.Context, id uuid.UUID, p pharmacyorder.PaymentUpdate) error {
	o, ok := r.orders[id]
	if !ok {
		return pharmacyorder.ErrOrderNotFound
	}
	o.PaymentStatus = p.Status
	o.PaidAmount = p.PaidAmount
	if p.Method != "" {
		o.PaymentMethod = p.Method
	}
	if p.Discount != 0 {
		o.Discount = p.Discount
	}
	return nil
}

type fakeSampleRepo struct {
	collections map[uuid.UUID]*sample.Collection
}

func newFakeSampleRepo() *fakeSampleRepo {
	return &fakeSampleRepo{collections: make(map[uuid.UUID]*sample.Collection)}
}

func (r *fakeSampleRepo) Create(_ context.Context, c *sample.Collection) error {
	c.ID = uuid.New()
	r.collections[c.ID] = c
	return nil
}

func (r *fakeSampleRepo) GetByID(_ context.Context, id uuid.UUID) (*sample.Collection, error) {
	c, ok := r.collections[id]
	if !ok {
		return nil, sample.ErrCollectionNotFound
	}
	return c, nil
}

func (r *fakeSampleRepo) GetByOrder(_ context.Context, orderID uuid.UUID) (*sample.Collection, error) {
	for _, c := range r.collections {
		if c.OrderID == orderID {
			return c, nil
		}
	}
	return nil, sample.ErrCollectionNotFound
}

func (r *fakeSampleRepo) Update(_ context.Context, c *sample.Collection) error {
	if _, ok := r.collections[c.ID]; !ok {
		return sample.ErrCollectionNotFound
	}
	r.collections[c.ID] = c
	return nil
}

func (r *fakeSampleRepo) List(_ context.Context, _ *sample.ListQuery) (*sample.PagedCollections, error) {
	out := &sample.PagedCollections{Collections: []*sample.Collection{}}
	for _, c := range r.collections {
		out.Collections = append(out.Collections, c)
	}
	out.TotalCount = int64(len(out.Collections))
	return out, nil
}

type fakeBillRepo struct {
	bills map[uuid.UUID]*billing.Bill
	items map[uuid.UUID][]*billing.BillItem
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{
		bills: make(map[uuid.UUID]*billing.Bill),
		items: make(map[uuid.UUID][]*billing.BillItem),
	}
}

func (r *fakeBillRepo) CreateWithItems(_ context.Context, b *billing.Bill, items []*billing.BillItem) error {
	b.ID = uuid.New()
	for _, item := range items {
		item.BillID = b.ID
	}
	r.bills[b.ID] = b
	r.items[b.ID] = items
	return nil
}

func (r *fakeBillRepo) GetByID(_ context.Context, id uuid.UUID) (*billing.Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, billing.ErrBillNotFound
	}
	return b, nil
}

func (r *fakeBillRepo) GetDetail(_ context.Context, id uuid.UUID) (*billing.BillDetail, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, billing.ErrBillNotFound
	}
	return &billing.BillDetail{Bill: b, Items: r.items[id]}, nil
}

func (r *fakeBillRepo) List(_ context.Context, _ *billing.ListQuery) (*billing.PagedBills, error) {
	out := &billing.PagedBills{Bills: []*billing.Bill{}}
	for _, b := range r.bills {
		out.Bills = append(out.Bills, b)
	}
	out.TotalCount = int64(len(out.Bills))
	return out, nil
}

func (r *fakeBillRepo) GetByPrescription(_ context.Context, prescriptionID uuid.UUID) ([]*billing.Bill, error) {
	out := []*billing.Bill{}
	for _, b := range r.bills {
		if b.PrescriptionID != nil && *b.PrescriptionID == prescriptionID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBillRepo) HasPaidByPrescription(_ context.Context, prescriptionID uuid.UUID) (bool, error) {
	for _, b := range r.bills {
		if b.PrescriptionID != nil && *b.PrescriptionID == prescriptionID && b.PaymentStatus == domain.PaymentPaid {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBillRepo) UpdatePayment(_ context.Context, id uuid.UUID, status domain.PaymentStatus, method, notes string) error {
	b, ok := r.bills[id]
	if !ok {
		return billing.ErrBillNotFound
	}
	b.PaymentStatus = status
	if method != "" {
		b.PaymentMethod = method
	}
	if notes != "" {
		b.Notes = notes
	}
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}
