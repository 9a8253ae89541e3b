// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/rankingdbv/ranking-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже существующим email.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrClubNotFound возвращается, если клуб не найден.
	ErrClubNotFound = errors.New("club not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrPurchaseNotFound возвращается, если покупка не найдена.
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrInsufficientPoints возвращается при покупке дороже текущего баланса баллов.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrProductOutOfStock возвращается при покупке товара с нулевым остатком.
	ErrProductOutOfStock = errors.New("product out of stock")
)

// MemberLimitError возвращается, когда лимит платных участников клуба исчерпан.
type MemberLimitError struct {
	Current int
	Limit   int
}

func (e *MemberLimitError) Error() string {
	return fmt.Sprintf("member limit reached (%d/%d)", e.Current, e.Limit)
}

// ClubBilling содержит биллинговые поля клуба, необходимые для проверки доступа.
type ClubBilling struct {
	Name            string
	Status          model.SubscriptionStatus
	NextBillingDate *time.Time
	GracePeriodDays int
}

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure и Deadlocks: транзакция
		// покупки атомарна и без побочных эффектов при откате.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateClub создаёт новый клуб с тарифом TRIAL и привязывает к нему владельца
// в одной транзакции.
func (r *PostgresRepository) CreateClub(ctx context.Context, name string, ownerID int64) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO clubs (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create club: %w", err)
	}

	cmdTag, err := tx.Exec(ctx,
		`UPDATE users SET club_id = $2, role = $3 WHERE id = $1`,
		ownerID, id, string(model.RoleOwner),
	)
	if err != nil {
		return 0, fmt.Errorf("assign club owner: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return 0, ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return id, nil
}

// GetClubBilling возвращает биллинговые поля клуба для проверки доступа на запись.
func (r *PostgresRepository) GetClubBilling(ctx context.Context, clubID int64) (*ClubBilling, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT name, subscription_status, next_billing_date, grace_period_days
		 FROM clubs WHERE id = $1`,
		clubID,
	)

	var b ClubBilling
	err := row.Scan(&b.Name, &b.Status, &b.NextBillingDate, &b.GracePeriodDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("get club billing: %w", err)
	}

	return &b, nil
}

// GetClubStatus возвращает биллинговые поля клуба и число активных участников.
func (r *PostgresRepository) GetClubStatus(ctx context.Context, clubID int64) (*model.ClubStatus, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT c.id, c.name, c.plan_tier, c.subscription_status, c.member_limit,
		        c.next_billing_date, c.grace_period_days, c.created_at,
		        (SELECT COUNT(*) FROM users u WHERE u.club_id = c.id AND u.is_active) AS active_members
		 FROM clubs c WHERE c.id = $1`,
		clubID,
	)

	var s model.ClubStatus
	err := row.Scan(&s.Club.ID, &s.Club.Name, &s.Club.PlanTier, &s.Club.SubscriptionStatus,
		&s.Club.MemberLimit, &s.Club.NextBillingDate, &s.Club.GracePeriodDays,
		&s.Club.CreatedAt, &s.ActiveMembers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("get club status: %w", err)
	}

	return &s, nil
}

// UpdateSubscription изменяет биллинговые поля клуба. Это единственная операция,
// которой разрешено менять статус подписки.
func (r *PostgresRepository) UpdateSubscription(ctx context.Context, clubID int64, tier model.PlanTier, memberLimit int, status model.SubscriptionStatus, nextBillingDate *time.Time, graceDays int) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE clubs
		 SET plan_tier = $2, member_limit = $3, subscription_status = $4,
		     next_billing_date = $5, grace_period_days = $6
		 WHERE id = $1`,
		clubID, string(tier), memberLimit, string(status), nextBillingDate, graceDays,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrClubNotFound
	}
	return nil
}

// CreateMember создаёт участника клуба, проверяя лимит платных участников
// в той же транзакции. Строка клуба блокируется FOR UPDATE, чтобы два
// параллельных создания не прошли по одному и тому же устаревшему счётчику.
func (r *PostgresRepository) CreateMember(ctx context.Context, u *model.User) (int64, error) {
	var id int64
	err := r.withRetry(ctx, func() error {
		var txErr error
		id, txErr = r.createMemberTx(ctx, u)
		return txErr
	})
	return id, err
}

func (r *PostgresRepository) createMemberTx(ctx context.Context, u *model.User) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if u.ClubID != nil {
		var limit int
		err = tx.QueryRow(ctx,
			`SELECT member_limit FROM clubs WHERE id = $1 FOR UPDATE`,
			*u.ClubID,
		).Scan(&limit)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrClubNotFound
			}
			return 0, fmt.Errorf("lock club for update: %w", err)
		}

		// Платные места: все роли, кроме PARENT и MASTER.
		var paidCount int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM users
			 WHERE club_id = $1 AND role NOT IN ($2, $3) AND is_active`,
			*u.ClubID, string(model.RoleParent), string(model.RoleMaster),
		).Scan(&paidCount)
		if err != nil {
			return 0, fmt.Errorf("count paid members: %w", err)
		}

		if u.Role != model.RoleParent && paidCount >= limit {
			return 0, &MemberLimitError{Current: paidCount, Limit: limit}
		}
	}

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO users (club_id, name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.ClubID, u.Name, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, club_id, name, email, password_hash, role, is_active, points, created_at
		 FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, club_id, name, email, password_hash, role, is_active, points, created_at
		 FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.ClubID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.Points, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

// DeleteMember удаляет пользователя. Журнал баллов и покупки удаляются каскадно.
func (r *PostgresRepository) DeleteMember(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetRanking возвращает топ-100 активных участников клуба по баллам.
func (r *PostgresRepository) GetRanking(ctx context.Context, clubID int64) ([]model.RankingEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, points, role
		 FROM users
		 WHERE club_id = $1 AND is_active
		 ORDER BY points DESC
		 LIMIT 100`,
		clubID,
	)
	if err != nil {
		return nil, fmt.Errorf("select ranking: %w", err)
	}
	defer rows.Close()

	var res []model.RankingEntry
	for rows.Next() {
		var e model.RankingEntry
		var role string
		if err := rows.Scan(&e.UserID, &e.Name, &e.Points, &role); err != nil {
			return nil, fmt.Errorf("scan ranking entry: %w", err)
		}
		e.Role = model.Role(role)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// AdjustPoints выставляет пользователю новый баланс баллов, записывая дельту
// в журнал. Строка пользователя блокируется, чтобы дельта считалась от
// зафиксированного состояния.
func (r *PostgresRepository) AdjustPoints(ctx context.Context, userID int64, newPoints int64, reason string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int64
	err = tx.QueryRow(ctx, `SELECT points FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("lock user for update: %w", err)
	}

	delta := newPoints - current
	if delta != 0 {
		_, err = tx.Exec(ctx, `UPDATE users SET points = $2 WHERE id = $1`, userID, newPoints)
		if err != nil {
			return 0, fmt.Errorf("update points: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO points_history (user_id, amount, reason, source) VALUES ($1, $2, $3, $4)`,
			userID, delta, reason, string(model.PointsSourceManual),
		)
		if err != nil {
			return 0, fmt.Errorf("insert points history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return newPoints, nil
}

// GetPointsHistory возвращает журнал баллов пользователя, новые записи первыми.
func (r *PostgresRepository) GetPointsHistory(ctx context.Context, userID int64) ([]model.PointsEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, amount, reason, source, awarded_at
		 FROM points_history
		 WHERE user_id = $1
		 ORDER BY awarded_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select points history: %w", err)
	}
	defer rows.Close()

	var res []model.PointsEntry
	for rows.Next() {
		var e model.PointsEntry
		var source string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Reason, &source, &e.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan points entry: %w", err)
		}
		e.Source = model.PointsSource(source)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListProducts возвращает товары клуба по возрастанию цены.
func (r *PostgresRepository) ListProducts(ctx context.Context, clubID int64) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, club_id, name, price, stock, category, created_at
		 FROM products
		 WHERE club_id = $1
		 ORDER BY price ASC`,
		clubID,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		var p model.Product
		var category string
		if err := rows.Scan(&p.ID, &p.ClubID, &p.Name, &p.Price, &p.Stock, &category, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Category = model.ProductCategory(category)
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateProduct создаёт товар клубного магазина.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (club_id, name, price, stock, category)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.ClubID, p.Name, p.Price, p.Stock, string(p.Category),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// DeleteProduct удаляет товар.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// BuyProduct выполняет покупку как одну атомарную транзакцию: блокирует строки
// пользователя и товара, перепроверяет баланс и остаток по зафиксированному
// состоянию, списывает баллы, пишет журнал, уменьшает остаток и создаёт покупку.
func (r *PostgresRepository) BuyProduct(ctx context.Context, userID, productID int64) (*model.Purchase, int64, error) {
	var (
		purchase   *model.Purchase
		newBalance int64
	)
	err := r.withRetry(ctx, func() error {
		var txErr error
		purchase, newBalance, txErr = r.buyProductTx(ctx, userID, productID)
		return txErr
	})
	return purchase, newBalance, err
}

func (r *PostgresRepository) buyProductTx(ctx context.Context, userID, productID int64) (*model.Purchase, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Порядок блокировок фиксированный: сначала пользователь, затем товар.
	var points int64
	err = tx.QueryRow(ctx, `SELECT points FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("lock user for update: %w", err)
	}

	var (
		name     string
		price    int64
		stock    int64
		category string
	)
	err = tx.QueryRow(ctx,
		`SELECT name, price, stock, category FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&name, &price, &stock, &category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrProductNotFound
		}
		return nil, 0, fmt.Errorf("lock product for update: %w", err)
	}

	if points < price {
		return nil, 0, ErrInsufficientPoints
	}

	if stock == 0 {
		return nil, 0, ErrProductOutOfStock
	}

	newBalance := points - price
	_, err = tx.Exec(ctx, `UPDATE users SET points = $2 WHERE id = $1`, userID, newBalance)
	if err != nil {
		return nil, 0, fmt.Errorf("decrement points: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO points_history (user_id, amount, reason, source) VALUES ($1, $2, $3, $4)`,
		userID, -price, "Compra: "+name, string(model.PointsSourcePurchase),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("insert points history: %w", err)
	}

	if stock > 0 {
		_, err = tx.Exec(ctx, `UPDATE products SET stock = stock - 1 WHERE id = $1`, productID)
		if err != nil {
			return nil, 0, fmt.Errorf("decrement stock: %w", err)
		}
	}

	status := model.PurchasePending
	if model.ProductCategory(category) == model.ProductVirtual {
		status = model.PurchaseApplied
	}

	p := model.Purchase{
		UserID:    userID,
		ProductID: productID,
		Cost:      price,
		Status:    status,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO purchases (user_id, product_id, cost, status)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		userID, productID, price, string(status),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("insert purchase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit tx: %w", err)
	}

	return &p, newBalance, nil
}

// GetPurchasesByUser возвращает покупки пользователя, новые первыми.
func (r *PostgresRepository) GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, cost, status, created_at
		 FROM purchases
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	defer rows.Close()

	var res []model.Purchase
	for rows.Next() {
		var p model.Purchase
		var status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Cost, &status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.Status = model.PurchaseStatus(status)
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ApplyPurchase переводит покупку из PENDING в APPLIED. Обратный переход запрещён.
func (r *PostgresRepository) ApplyPurchase(ctx context.Context, purchaseID int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE purchases SET status = $2 WHERE id = $1 AND status = $3`,
		purchaseID, string(model.PurchaseApplied), string(model.PurchasePending),
	)
	if err != nil {
		return fmt.Errorf("apply purchase: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

// CreateNotification сохраняет уведомление пользователя.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *model.Notification) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (user_id, title, message, type)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		n.UserID, n.Title, n.Message, string(n.Type),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create notification: %w", err)
	}
	return id, nil
}

// GetNotifications возвращает последние 20 уведомлений пользователя.
func (r *PostgresRepository) GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, message, type, read, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 20`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var res []model.Notification
	for rows.Next() {
		var n model.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = model.NotificationType(typ)
		res = append(res, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetUnreadCount возвращает число непрочитанных уведомлений пользователя.
func (r *PostgresRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkNotificationRead помечает уведомление прочитанным.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead помечает все уведомления пользователя прочитанными.
func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// OverdueClub описывает клуб с просроченной подпиской и владельца для напоминания.
type OverdueClub struct {
	ClubID   int64
	ClubName string
	OwnerID  int64
}

// GetOverdueClubs возвращает клубы, чья подписка просрочена на момент now
// (хранимый статус OVERDUE/CANCELED либо пройден льготный срок), вместе с
// владельцами для отправки напоминаний об оплате.
func (r *PostgresRepository) GetOverdueClubs(ctx context.Context, now time.Time, limit int) ([]OverdueClub, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, u.id
		 FROM clubs c
		 JOIN users u ON u.club_id = c.id AND u.role = $1 AND u.is_active
		 WHERE c.subscription_status IN ($2, $3)
		    OR (c.next_billing_date IS NOT NULL
		        AND c.next_billing_date + make_interval(days => c.grace_period_days) < $4)
		 ORDER BY c.id
		 LIMIT $5`,
		string(model.RoleOwner),
		string(model.SubscriptionOverdue), string(model.SubscriptionCanceled),
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select overdue clubs: %w", err)
	}
	defer rows.Close()

	var res []OverdueClub
	for rows.Next() {
		var o OverdueClub
		if err := rows.Scan(&o.ClubID, &o.ClubName, &o.OwnerID); err != nil {
			return nil, fmt.Errorf("scan overdue club: %w", err)
		}
		res = append(res, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
