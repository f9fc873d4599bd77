package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sara-ai/checkin-service/internal/config"
	st "github.com/sara-ai/checkin-service/internal/store"
	"github.com/sara-ai/checkin-service/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("Store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		cfg := config.NewDefault()
		db, err := st.InitDB(cfg)
		Expect(err).To(BeNil())
		gormDB = db

		store = st.NewStore(db)
		Expect(store).ToNot(BeNil())
		Expect(store.InitialMigration(context.TODO())).To(Succeed())
	})

	AfterAll(func() {
		store.Close()
	})

	Context("transaction", func() {
		It("inserts a task successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			task, err := store.Task().Create(ctx, model.Task{ID: uuid.New(), OwnerID: "user-1"})
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusQueued))

			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from tasks;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rolls back a check-in and its task update together", func() {
			taskID := uuid.New()
			_, err := store.Task().Create(context.TODO(), model.Task{ID: taskID, OwnerID: "user-1"})
			Expect(err).To(BeNil())

			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = store.CheckIn().Create(ctx, model.CheckIn{OwnerID: "user-1", TaskID: taskID})
			Expect(err).To(BeNil())

			progress := 75
			_, err = store.Task().Update(ctx, taskID, st.TaskUpdate{Status: model.TaskStatusProcessing, Progress: &progress})
			Expect(err).To(BeNil())

			_, rerr := st.Rollback(ctx)
			Expect(rerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from checkins;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))

			task, err := store.Task().Get(context.TODO(), taskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusQueued))
			Expect(task.Progress).To(Equal(0))
		})

		AfterEach(func() {
			gormDB.Exec("DELETE from checkins;")
			gormDB.Exec("DELETE from tasks;")
		})
	})
})
