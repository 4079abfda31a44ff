package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"facilityops/internal/model"
	"facilityops/internal/repository"
	"facilityops/internal/testutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []NotificationMessage
}

func (n *recordingNotifier) Notify(_ context.Context, msg NotificationMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) sentTo(userID uuid.UUID) []NotificationMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []NotificationMessage
	for _, m := range n.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	now       time.Time
	engine    RequisitionService
	approvals ApprovalService
	notifier  *recordingNotifier
	repo      repository.RequisitionRepository

	property   *model.Property
	mop        *model.ItemMaster
	bucket     *model.ItemMaster
	requester  *model.User
	other      *model.User
	manager    *model.User
	supervisor *model.User
	admin      *model.User
	executive  *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		now:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		notifier: &recordingNotifier{},
	}

	f.repo = repository.NewRequisitionRepository(db)
	users := repository.NewUserRepository(db)
	f.engine = NewRequisitionService(
		f.repo,
		repository.NewPropertyRepository(db),
		repository.NewItemMasterRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		RequisitionConfig{
			OrderPrefix:       "REQ",
			IdempotencyWindow: 10 * time.Second,
			Now:               func() time.Time { return f.now },
		},
		zap.NewNop(),
	)
	f.approvals = NewApprovalService(f.engine, NewIdentityResolver(users), f.notifier, zap.NewNop())

	f.property = testutil.CreateProperty(t, db, "HQ", "Head Office")
	f.mop = testutil.CreateItemMaster(t, db, "Mop", "Cleaning", "pcs", 5)
	f.bucket = testutil.CreateItemMaster(t, db, "Bucket", "Cleaning", "pcs", 10)
	f.requester = testutil.CreateUser(t, db, "rita", model.RoleRequester)
	f.other = testutil.CreateUser(t, db, "oscar", model.RoleRequester)
	f.manager = testutil.CreateUser(t, db, "mona", model.RoleManager)
	f.supervisor = testutil.CreateUser(t, db, "sam", model.RoleOpsSupervisor)
	f.admin = testutil.CreateUser(t, db, "ada", model.RoleAdmin)
	f.executive = testutil.CreateUser(t, db, "eve", model.RolePurchaseExecutive)
	return f
}

func (f *fixture) actor(u *model.User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

func (f *fixture) form() RequisitionForm {
	return RequisitionForm{PropertyID: f.property.ID.String(), Priority: model.PriorityHigh, Notes: "lobby cleaning"}
}

func line(master *model.ItemMaster, quantity int) ItemInput {
	return ItemInput{ItemMasterID: master.ID.String(), Quantity: quantity}
}

// tick moves the clock into the next idempotency window.
func (f *fixture) tick() {
	f.now = f.now.Add(time.Minute)
}

func (f *fixture) countRequisitions(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&model.RequisitionList{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	return count
}

// submitted creates a requisition by the fixture requester in pending_manager_approval.
func (f *fixture) submitted(t *testing.T) uuid.UUID {
	t.Helper()
	res, err := f.engine.SubmitForApproval(context.Background(), f.actor(f.requester), f.form(), []ItemInput{line(f.mop, 2)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.tick()
	return res.ID
}

// approved returns a requisition that a manager has approved.
func (f *fixture) approved(t *testing.T) uuid.UUID {
	t.Helper()
	id := f.submitted(t)
	if _, err := f.approvals.Approve(context.Background(), f.manager.ID, id, "ok"); err != nil {
		t.Fatal(err)
	}
	return id
}
