package postgres_test

import (
	"context"
	"time"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/auth"
	"github.com/frahmantamala/casetrack/internal/core/datamodel"
	sessionDatamodel "github.com/frahmantamala/casetrack/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/casetrack/internal/core/datamodel/user"
	userPostgres "github.com/frahmantamala/casetrack/internal/user/postgres"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Repository", func() {
	var (
		ctx   context.Context
		gdb   *gorm.DB
		repo  *userPostgres.Repository
		clerk userDatamodel.User
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		gdb, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)
		Expect(gdb.AutoMigrate(datamodel.All()...)).To(Succeed())

		repo = userPostgres.NewRepository(sqlx.NewDb(sqlDB, "sqlite3"))

		role := userDatamodel.Role{Name: "clerk", PermissionBitmask: uint8(auth.PermCreate | auth.PermView)}
		Expect(gdb.Create(&role).Error).To(Succeed())
		area := userDatamodel.Area{Name: "civil"}
		Expect(gdb.Create(&area).Error).To(Succeed())

		seen := time.Now().UTC().Truncate(time.Second)
		clerk = userDatamodel.User{
			LoginCode:    "clerk01",
			FullName:     "Civil Clerk",
			PasswordHash: "x",
			RoleID:       role.ID,
			AreaID:       &area.ID,
			LastAccessAt: &seen,
		}
		Expect(gdb.Create(&clerk).Error).To(Succeed())
	})

	It("joins role, area and live session count", func() {
		revoked := time.Now()
		Expect(gdb.Create(&sessionDatamodel.Session{UserID: clerk.ID, Token: "a", CreatedAt: time.Now()}).Error).To(Succeed())
		Expect(gdb.Create(&sessionDatamodel.Session{UserID: clerk.ID, Token: "b", CreatedAt: time.Now()}).Error).To(Succeed())
		Expect(gdb.Create(&sessionDatamodel.Session{UserID: clerk.ID, Token: "c", CreatedAt: time.Now(), ExpiresAt: &revoked}).Error).To(Succeed())

		p, err := repo.GetProfile(ctx, clerk.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.LoginCode).To(Equal("clerk01"))
		Expect(p.FullName).To(Equal("Civil Clerk"))
		Expect(p.RoleName).To(Equal("clerk"))
		Expect(p.PermissionBitmask).To(Equal(auth.PermCreate | auth.PermView))
		Expect(p.AreaName).To(Equal("civil"))
		Expect(p.AreaID).NotTo(BeNil())
		Expect(p.LastAccessAt).NotTo(BeNil())
		Expect(p.ActiveSessions).To(Equal(2))
	})

	It("leaves the area empty for users without one", func() {
		Expect(gdb.Model(&userDatamodel.User{}).Where("id = ?", clerk.ID).Update("area_id", nil).Error).To(Succeed())

		p, err := repo.GetProfile(ctx, clerk.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.AreaID).To(BeNil())
		Expect(p.AreaName).To(BeEmpty())
	})

	It("maps a missing user to ErrUserNotFound", func() {
		_, err := repo.GetProfile(ctx, 9999)
		Expect(err).To(MatchError(internal.ErrUserNotFound))
	})
})
