package cti

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/logger"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Coordinator persists records across the tables of their hierarchy.
type Coordinator struct {
	reg        *Registry
	store      types.Store
	log        *zap.Logger
	savepoints atomic.Uint64
}

// NewCoordinator returns a coordinator writing to store. A nil log
// discards output.
func NewCoordinator(reg *Registry, store types.Store, log *zap.Logger) *Coordinator {
	return &Coordinator{
		reg:   reg,
		store: store,
		log:   logger.OrNop(log).With(zap.String("component", "coordinator")),
	}
}

// Registry returns the registry the coordinator was built with.
func (c *Coordinator) Registry() *Registry {
	return c.reg
}

// Transaction runs fn in one transaction, committing when fn returns nil
// and rolling back otherwise. Records saved through SaveTx inside fn are
// restored to their previous in-memory state when the transaction fails.
func (c *Coordinator) Transaction(ctx context.Context, fn func(ctx context.Context, tx types.Tx) error) error {
	tx, err := c.store.Begin(ctx)
	if err != nil {
		return err
	}
	j := newJournal()
	ctx = withJournal(ctx, j)
	log := c.log.With(zap.String("tx", tx.ID()))

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed", zap.Error(rbErr))
		}
		j.restore()
		log.Warn("transaction rolled back", zap.Error(err))
		return err
	}
	if err := tx.Commit(); err != nil {
		j.restore()
		return err
	}
	return nil
}

// Save persists rec, its ancestor chain and its new or changed children in
// one transaction.
func (c *Coordinator) Save(ctx context.Context, rec *Record) error {
	return c.Transaction(ctx, func(ctx context.Context, tx types.Tx) error {
		return c.SaveTx(ctx, tx, rec)
	})
}

// SaveTx persists rec and its ancestor chain inside tx. Parents are saved
// first and each record adopts its parent's id. The writes of one call sit
// behind a savepoint: on failure they are rolled back, leaving tx usable
// and free of a partial chain, and the in-memory state of every touched
// record is restored. Rolling back tx itself is left to its owner.
func (c *Coordinator) SaveTx(ctx context.Context, tx types.Tx, rec *Record) error {
	local := newJournal()
	local.touch(rec)
	if shared, ok := journalFrom(ctx); ok {
		shared.touch(rec)
	}

	sp := fmt.Sprintf("strata_save_%d", c.savepoints.Add(1))
	if err := tx.Savepoint(ctx, sp); err != nil {
		return err
	}
	if err := c.save(ctx, tx, rec, map[*Record]bool{}); err != nil {
		if rbErr := tx.RollbackTo(ctx, sp); rbErr != nil {
			c.log.Error("rollback to savepoint failed", zap.String("tx", tx.ID()), zap.Error(rbErr))
		} else if relErr := tx.Release(ctx, sp); relErr != nil {
			c.log.Warn("releasing savepoint failed", zap.String("tx", tx.ID()), zap.Error(relErr))
		}
		local.restore()
		return err
	}
	return tx.Release(ctx, sp)
}

// save writes rec after its ancestors. saving holds the records whose save
// is in progress further up the call stack.
func (c *Coordinator) save(ctx context.Context, tx types.Tx, rec *Record, saving map[*Record]bool) error {
	if !saving[rec] {
		saving[rec] = true
		defer delete(saving, rec)
	}

	m := rec.model
	if h := m.desc.Hooks.BeforeSave; h != nil {
		if err := h(ctx, rec); err != nil {
			return err
		}
	}
	if m.concrete && rec.Get(m.typeAttribute) != m.discriminator {
		if err := rec.Set(m.typeAttribute, m.discriminator); err != nil {
			return fmt.Errorf("recording discriminator of %s: %w", m.name, err)
		}
	}

	if m.parent != nil {
		parent := rec.materialize(m.parent)
		if err := c.save(ctx, tx, parent, saving); err != nil {
			return err
		}
		if rec.hasID() && rec.ID() != parent.ID() {
			return fmt.Errorf("%w: %s %d has parent %s %d", types.ErrIdentityMismatch,
				m.name, rec.ID(), parent.model.name, parent.ID())
		}
		rec.attrs["id"] = parent.attrs["id"]
	}

	values := rec.ownValues()
	if rec.IsNew() {
		if rec.hasID() {
			values["id"] = rec.attrs["id"]
		}
		row, err := tx.Insert(ctx, m.table, values, "id")
		if err != nil {
			return err
		}
		rec.merge(row)
		rec.persisted = true
		c.log.Debug("inserted", zap.String("type", m.name), zap.Int64("id", rec.ID()), zap.String("tx", tx.ID()))
	} else if len(values) > 0 {
		n, err := tx.Update(ctx, m.table, rec.attrs["id"], values)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s %d", types.ErrNotFound, m.name, rec.ID())
		}
		c.log.Debug("updated", zap.String("type", m.name), zap.Int64("id", rec.ID()), zap.String("tx", tx.ID()))
	}
	clear(rec.changed)

	if err := c.saveChildren(ctx, tx, rec, saving); err != nil {
		return err
	}

	if h := m.desc.Hooks.AfterSave; h != nil {
		return h(ctx, rec)
	}
	return nil
}

// saveChildren persists the materialized child records of rec that are new
// or hold unsaved changes, such as a child created by writing a delegated
// attribute. A child is bound to rec's chain before it is saved.
func (c *Coordinator) saveChildren(ctx context.Context, tx types.Tx, rec *Record, saving map[*Record]bool) error {
	h := rec.model.Hierarchy()
	if h == nil {
		return nil
	}
	for _, rel := range h.Children() {
		child := rec.related[rel.Name]
		if child == nil || saving[child] || (!child.IsNew() && len(child.changed) == 0) {
			continue
		}
		if err := checkChildType(rec, child); err != nil {
			return err
		}
		bindChild(rec, rel, child)
		if err := c.save(ctx, tx, child, saving); err != nil {
			return err
		}
	}
	return nil
}

// checkChildType rejects saving a concrete child under an owner already
// recorded as another type, which would retype the entity.
func checkChildType(owner, child *Record) error {
	cm := child.model
	if !cm.concrete {
		return nil
	}
	current := owner.Get(owner.model.typeAttribute)
	if !present(current) || current == cm.discriminator {
		return nil
	}
	return fmt.Errorf("%w: %s %d is %v, cannot hold a %s", types.ErrIdentityMismatch,
		owner.model.name, owner.ID(), current, cm.name)
}

// bindChild links child's parent chain to owner so that saving the child
// reuses owner instead of materializing a blank ancestor.
func bindChild(owner *Record, rel *Relation, child *Record) {
	up := child.model.parent
	if up == nil {
		return
	}
	if rel.Kind != HasOneThrough {
		if child.related[up.Name] == nil {
			child.link(up, owner)
		}
		return
	}

	mid := child.related[up.Name]
	if mid == nil {
		for _, down := range owner.model.relations {
			if down.Kind == HasOne && down.Target == rel.Through {
				mid = owner.related[down.Name]
				break
			}
		}
		if mid == nil {
			mid = newRecord(rel.Through)
		}
		child.link(up, mid)
	}
	if midUp := mid.model.parent; midUp != nil && mid.related[midUp.Name] == nil {
		mid.link(midUp, owner)
	}
}

// Delete removes rec by deleting the root row of its chain; the storage
// engine cascades the delete to every subtype table. The deleted records
// become new records without an id.
func (c *Coordinator) Delete(ctx context.Context, rec *Record) error {
	if !rec.hasID() || rec.IsNew() {
		return fmt.Errorf("%w: %s record is not persisted", types.ErrInvalidID, rec.model.name)
	}
	root := rec.model.root()
	n, err := c.store.Delete(ctx, root.table, types.Eq{Column: "id", Value: rec.attrs["id"]})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", types.ErrNotFound, rec.model.name, rec.ID())
	}
	c.log.Debug("deleted", zap.String("type", rec.model.name), zap.Int64("id", rec.ID()))
	forget(rec, map[*Record]bool{})
	return nil
}

// DeleteAll removes every entity of the named type and returns how many
// were deleted.
func (c *Coordinator) DeleteAll(ctx context.Context, typeName string) (int64, error) {
	m, err := c.reg.Model(typeName)
	if err != nil {
		return 0, err
	}
	root := m.root()
	var where []types.Predicate
	if root != m {
		where = append(where, types.Related{Table: m.table})
	}
	n, err := c.store.Delete(ctx, root.table, where...)
	if err != nil {
		return 0, err
	}
	c.log.Debug("deleted all", zap.String("type", m.name), zap.Int64("count", n))
	return n, nil
}

func forget(r *Record, seen map[*Record]bool) {
	if seen[r] {
		return
	}
	seen[r] = true
	delete(r.attrs, "id")
	r.persisted = false
	for _, t := range r.related {
		forget(t, seen)
	}
}
