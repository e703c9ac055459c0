package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-engine/internal/allocation"
	"github.com/angelmondragon/fulfillment-engine/internal/cart"
	"github.com/angelmondragon/fulfillment-engine/internal/inventory"
	"github.com/angelmondragon/fulfillment-engine/internal/pricerules"
	"github.com/angelmondragon/fulfillment-engine/internal/pricing"
	"github.com/angelmondragon/fulfillment-engine/pkg/db/models"
	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/money"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox"
	"github.com/angelmondragon/fulfillment-engine/pkg/outbox/payloads"
	"github.com/angelmondragon/fulfillment-engine/pkg/pagination"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Decrement(ctx context.Context, tx *gorm.DB, mv inventory.Movement) error
}

type allocator interface {
	Resolve(ctx context.Context, src allocation.Source, req allocation.Request) (allocation.Result, error)
}

type addressResolver interface {
	ResolveDeliveryAddress(ctx context.Context, ownerID, addressID uuid.UUID) (types.AddressSnapshot, error)
	Snapshot(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, addr types.AddressSnapshot) (*models.DeliveryAddress, error)
}

type priceRuleLookup interface {
	PriceRuleFor(ctx context.Context, actorID uuid.UUID) (pricerules.Rule, error)
}

type storeDirectory interface {
	CompanyOwnedStoreIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

type placementMetrics interface {
	ObservePlacement(kind string, duration time.Duration)
	IncPlaced(kind string)
	IncPlacementFailure(kind, code string)
}

// Service is the order assembler plus the sub-order listing.
type Service interface {
	PlaceOrder(ctx context.Context, actor types.Actor, input PlaceOrderInput) (*PlacementResult, error)
	PlaceAggregatedOrder(ctx context.Context, actor types.Actor, input PlaceAggregatedOrderInput) (*PlacementResult, error)
	ListSubOrders(ctx context.Context, actor types.Actor, filter ListFilter, params pagination.Params) (*SubOrderList, error)
}

type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Ledger     stockLedger
	Resolver   allocator
	// Sources binds allocation reads to the placement transaction.
	Sources    func(tx *gorm.DB) allocation.Source
	Addresses  addressResolver
	PriceRules priceRuleLookup
	Cart       cart.CartRepository
	Stores     storeDirectory
	Outbox     outbox.Emitter
	Metrics    placementMetrics
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	tx         txRunner
	ledger     stockLedger
	resolver   allocator
	sources    func(tx *gorm.DB) allocation.Source
	addresses  addressResolver
	priceRules priceRuleLookup
	cart       cart.CartRepository
	stores     storeDirectory
	outbox     outbox.Emitter
	metrics    placementMetrics
	logg       *logger.Logger
}

// NewService builds the order assembler with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("allocation resolver required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if params.PriceRules == nil {
		return nil, fmt.Errorf("price rule lookup required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store directory required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	sources := params.Sources
	if sources == nil {
		sources = allocation.NewSource
	}
	return &service{
		repo:       params.Repository,
		tx:         params.Tx,
		ledger:     params.Ledger,
		resolver:   params.Resolver,
		sources:    sources,
		addresses:  params.Addresses,
		priceRules: params.PriceRules,
		cart:       params.Cart,
		stores:     params.Stores,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// placement is the kind-independent checkout request.
type placement struct {
	kind          enums.OrderKind
	actor         types.Actor
	address       *types.AddressSnapshot
	addressID     *uuid.UUID
	lines         []LineRequest
	paymentMethod enums.PaymentMethod
	discount      decimal.Decimal
	ruleName      *string
}

type allocatedLine struct {
	product models.Product
	qty     int
	alloc   allocation.Result
	quote   pricing.Quote
}

type groupKey struct {
	storeID   uuid.UUID
	companyID uuid.UUID
}

type group struct {
	key      groupKey
	lines    []allocatedLine
	subTotal decimal.Decimal
}

func (s *service) PlaceOrder(ctx context.Context, actor types.Actor, input PlaceOrderInput) (*PlacementResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, pkgerrors.ActorNotAuthorized(err.Error())
	}
	if actor.Role != enums.ActorRoleCustomer {
		return nil, pkgerrors.ActorNotAuthorized("only customers place simple orders")
	}
	return s.place(ctx, placement{
		kind:          enums.OrderKindSimple,
		actor:         actor,
		address:       input.Address,
		addressID:     input.AddressID,
		lines:         input.Lines,
		paymentMethod: input.PaymentMethod,
	})
}

func (s *service) PlaceAggregatedOrder(ctx context.Context, actor types.Actor, input PlaceAggregatedOrderInput) (*PlacementResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, pkgerrors.ActorNotAuthorized(err.Error())
	}
	if actor.Role != enums.ActorRoleDistributor && actor.Role != enums.ActorRoleStore {
		return nil, pkgerrors.ActorNotAuthorized("only distributors and stores place aggregated orders")
	}

	rule, err := s.priceRules.PriceRuleFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if input.PriceRuleName != nil {
		requested := strings.TrimSpace(*input.PriceRuleName)
		if requested != "" && !strings.EqualFold(requested, rule.Name) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price rule does not apply to actor").
				WithDetails(map[string]any{"priceRuleName": requested})
		}
	}
	var ruleName *string
	if rule.Name != "" {
		name := rule.Name
		ruleName = &name
	}

	return s.place(ctx, placement{
		kind:          enums.OrderKindAggregated,
		actor:         actor,
		address:       input.Address,
		addressID:     input.AddressID,
		lines:         input.Lines,
		paymentMethod: input.PaymentMethod,
		discount:      rule.DiscountPercent,
		ruleName:      ruleName,
	})
}

func (s *service) place(ctx context.Context, in placement) (*PlacementResult, error) {
	start := time.Now()
	kind := string(in.kind)

	result, err := s.assemble(ctx, in)
	if err != nil {
		if s.metrics != nil {
			code := pkgerrors.CodeInternal
			if typed := pkgerrors.As(err); typed != nil {
				code = typed.Code()
			}
			s.metrics.IncPlacementFailure(kind, string(code))
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_kind": kind,
				"actor_id":   in.actor.ID.String(),
				"error":      err.Error(),
			})
			s.logg.Warn(logCtx, "order placement failed")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObservePlacement(kind, time.Since(start))
		s.metrics.IncPlaced(kind)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_kind": kind,
			"order_id":   result.OrderID.String(),
			"sub_orders": len(result.SubOrders),
			"total":      result.TotalAmount.String(),
		})
		s.logg.Info(logCtx, "order placed")
	}
	return result, nil
}

func (s *service) assemble(ctx context.Context, in placement) (*PlacementResult, error) {
	lines, err := mergeLines(in.lines)
	if err != nil {
		return nil, err
	}
	if !in.paymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"paymentMethod": in.paymentMethod})
	}
	addr, err := s.resolveAddress(ctx, in)
	if err != nil {
		return nil, err
	}

	var result *PlacementResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		delivery, err := s.addresses.Snapshot(ctx, tx, in.actor.ID, addr)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			productIDs = append(productIDs, line.ProductID)
		}
		products, err := repo.FindProducts(ctx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		for _, line := range lines {
			product, ok := products[line.ProductID]
			if !ok {
				return pkgerrors.ProductNotFound(line.ProductID.String())
			}
			if in.kind == enums.OrderKindSimple && product.StockLevel < line.Quantity {
				return pkgerrors.InsufficientStock(product.Name)
			}
		}

		groups, err := s.allocate(ctx, tx, in, addr, lines, products)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, g := range groups {
			total = total.Add(g.subTotal)
		}

		switch in.kind {
		case enums.OrderKindSimple:
			result, err = s.persistSimple(ctx, repo, in, delivery.ID, groups, total)
		default:
			result, err = s.persistAggregated(ctx, repo, in, delivery.ID, groups, total)
		}
		if err != nil {
			return err
		}

		for _, g := range groups {
			for _, line := range g.lines {
				if !line.alloc.Deduct {
					continue
				}
				if err := s.ledger.Decrement(ctx, tx, inventory.Movement{
					Key:         line.alloc.Key,
					ProductName: line.product.Name,
					Quantity:    line.qty,
				}); err != nil {
					return err
				}
			}
		}

		if _, err := s.cart.WithTx(tx).RemoveProducts(ctx, in.actor.ID, productIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drain cart")
		}

		return s.emitPlaced(ctx, tx, in, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) resolveAddress(ctx context.Context, in placement) (types.AddressSnapshot, error) {
	switch {
	case in.addressID != nil && in.address != nil:
		return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "provide either address or addressId")
	case in.addressID != nil:
		return s.addresses.ResolveDeliveryAddress(ctx, in.actor.ID, *in.addressID)
	case in.address != nil:
		return *in.address, nil
	default:
		return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
}

// allocate resolves and prices every line, grouping them by (store, company)
// in first-seen order.
func (s *service) allocate(ctx context.Context, tx *gorm.DB, in placement, addr types.AddressSnapshot, lines []LineRequest, products map[uuid.UUID]models.Product) ([]*group, error) {
	src := s.sources(tx)
	var groups []*group
	index := map[groupKey]*group{}

	for _, line := range lines {
		product := products[line.ProductID]
		res, err := s.resolver.Resolve(ctx, src, allocation.Request{
			ProductID:   product.ID,
			ProductName: product.Name,
			CompanyID:   product.CompanyID,
			Quantity:    line.Quantity,
			Pincode:     addr.Pincode(),
			Role:        in.actor.Role,
			Aggregated:  in.kind == enums.OrderKindAggregated,
		})
		if err != nil {
			return nil, err
		}

		discount := product.Discount
		if in.kind == enums.OrderKindAggregated {
			discount = in.discount
		}
		quote := pricing.Settle(pricing.Input{
			BasePrice:       product.Price,
			GST:             product.GST,
			DiscountPercent: discount,
			Quantity:        line.Quantity,
			HandlingCharges: product.HandlingCharges,
			ShippingCharges: product.ShippingCharges,
			OtherCharges:    product.OtherCharges,
		})

		key := groupKey{storeID: res.StoreID, companyID: res.CompanyID}
		g, ok := index[key]
		if !ok {
			g = &group{key: key, subTotal: decimal.Zero}
			index[key] = g
			groups = append(groups, g)
		}
		g.lines = append(g.lines, allocatedLine{product: product, qty: line.Quantity, alloc: res, quote: quote})
		g.subTotal = g.subTotal.Add(quote.LineTotal)
	}
	return groups, nil
}

func (s *service) persistSimple(ctx context.Context, repo Repository, in placement, deliveryID uuid.UUID, groups []*group, total decimal.Decimal) (*PlacementResult, error) {
	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    in.actor.ID,
		TotalAmount:   money.Round(total),
		PaymentMethod: in.paymentMethod,
	}
	if err := repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	result := newResult(order.ID, in.kind, order.TotalAmount)
	for _, g := range groups {
		item := &models.OrderItem{
			ID:                uuid.New(),
			OrderID:           order.ID,
			StoreID:           g.key.storeID,
			CompanyID:         g.key.companyID,
			OrderStatus:       enums.OrderStatusPending,
			SubTotal:          money.Round(g.subTotal),
			DeliveryAddressID: deliveryID,
		}
		if err := repo.CreateOrderItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sub-order")
		}

		rows := make([]models.OrderProduct, 0, len(g.lines))
		for _, line := range g.lines {
			rows = append(rows, models.OrderProduct{
				ID:          uuid.New(),
				OrderItemID: item.ID,
				Line:        newLine(line),
			})
		}
		if err := repo.CreateOrderProducts(ctx, rows); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sub-order lines")
		}

		if err := repo.AppendOrderHistory(ctx, &models.OrderStatusHistory{
			ID:          uuid.New(),
			OrderItemID: item.ID,
			ToStatus:    string(enums.OrderStatusPending),
			ChangedBy:   in.actor.ID,
			ActorRole:   in.actor.Role,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		sub := SubOrder{
			ID:        item.ID,
			StoreID:   item.StoreID,
			CompanyID: item.CompanyID,
			Status:    item.OrderStatus,
			SubTotal:  item.SubTotal,
		}
		for _, row := range rows {
			sub.Lines = append(sub.Lines, placedLine(row.ID, row.Line))
		}
		result.SubOrders = append(result.SubOrders, sub)
	}
	return result, nil
}

func (s *service) persistAggregated(ctx context.Context, repo Repository, in placement, deliveryID uuid.UUID, groups []*group, total decimal.Decimal) (*PlacementResult, error) {
	order := &models.AggregatedOrder{
		ID:            uuid.New(),
		ActorID:       in.actor.ID,
		ActorRole:     in.actor.Role,
		PriceRuleName: in.ruleName,
		TotalAmount:   money.Round(total),
		PaymentMethod: in.paymentMethod,
	}
	if err := repo.CreateAggregatedOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create aggregated order")
	}

	result := newResult(order.ID, in.kind, order.TotalAmount)
	for _, g := range groups {
		item := &models.AggregatedOrderItem{
			ID:                uuid.New(),
			AggregatedOrderID: order.ID,
			StoreID:           g.key.storeID,
			CompanyID:         g.key.companyID,
			OrderState:        enums.AggregatedOrderStateProcessing,
			OrderStatus:       enums.OrderStatusPending,
			SubTotal:          money.Round(g.subTotal),
			DeliveryAddressID: deliveryID,
		}
		if err := repo.CreateAggregatedOrderItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create aggregated sub-order")
		}

		rows := make([]models.AggregatedOrderProduct, 0, len(g.lines))
		for _, line := range g.lines {
			rows = append(rows, models.AggregatedOrderProduct{
				ID:                    uuid.New(),
				AggregatedOrderItemID: item.ID,
				Line:                  newLine(line),
			})
		}
		if err := repo.CreateAggregatedOrderProducts(ctx, rows); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create aggregated sub-order lines")
		}

		if err := repo.AppendAggregatedHistory(ctx, &models.AggregatedOrderStatusHistory{
			ID:                    uuid.New(),
			AggregatedOrderItemID: item.ID,
			Machine:               enums.FlowProcessing,
			OrderState:            enums.AggregatedOrderStateProcessing,
			ToStatus:              string(enums.OrderStatusPending),
			ChangedBy:             in.actor.ID,
			ActorRole:             in.actor.Role,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		sub := SubOrder{
			ID:        item.ID,
			StoreID:   item.StoreID,
			CompanyID: item.CompanyID,
			Status:    item.OrderStatus,
			SubTotal:  item.SubTotal,
		}
		for _, row := range rows {
			sub.Lines = append(sub.Lines, placedLine(row.ID, row.Line))
		}
		result.SubOrders = append(result.SubOrders, sub)
	}
	return result, nil
}

func (s *service) emitPlaced(ctx context.Context, tx *gorm.DB, in placement, result *PlacementResult) error {
	aggregateType := enums.AggregateOrder
	if in.kind == enums.OrderKindAggregated {
		aggregateType = enums.AggregateAggregatedOrder
	}
	subOrderIDs := make([]uuid.UUID, 0, len(result.SubOrders))
	for _, sub := range result.SubOrders {
		subOrderIDs = append(subOrderIDs, sub.ID)
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: aggregateType,
		AggregateID:   result.OrderID,
		Actor:         actorRef(in.actor),
		Data: payloads.OrderPlacedEvent{
			OrderID:     result.OrderID,
			Kind:        in.kind,
			ActorID:     in.actor.ID,
			ActorRole:   in.actor.Role,
			SubOrderIDs: subOrderIDs,
			TotalAmount: result.TotalAmount,
		},
	})
}

func (s *service) ListSubOrders(ctx context.Context, actor types.Actor, filter ListFilter, params pagination.Params) (*SubOrderList, error) {
	if err := actor.Validate(); err != nil {
		return nil, pkgerrors.ActorNotAuthorized(err.Error())
	}
	kind := filter.Kind
	if kind == "" {
		kind = enums.OrderKindSimple
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order kind")
	}

	after, err := pagination.ParseCursor(params.Cursor, string(kind))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	scope, err := s.scopeFor(ctx, actor, kind, filter)
	if err != nil {
		return nil, err
	}
	scope.After = after

	list := &SubOrderList{Items: []SubOrderSummary{}}
	switch kind {
	case enums.OrderKindSimple:
		rows, err := s.repo.ListOrderItems(ctx, scope, params)
		if err != nil {
			return nil, listError(err)
		}
		for _, row := range rows {
			list.Items = append(list.Items, summarizeOrderItem(row))
		}
	default:
		rows, err := s.repo.ListAggregatedOrderItems(ctx, scope, params)
		if err != nil {
			return nil, listError(err)
		}
		for _, row := range rows {
			list.Items = append(list.Items, summarizeAggregatedItem(row))
		}
	}

	var more bool
	if list.Items, more = pagination.Trim(list.Items, params.Limit); more {
		last := list.Items[len(list.Items)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{Scope: string(kind), CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

// scopeFor restricts the listing to what the actor may see: fulfillers see
// their stores' sub-orders, placers see the orders they placed.
func (s *service) scopeFor(ctx context.Context, actor types.Actor, kind enums.OrderKind, filter ListFilter) (ListScope, error) {
	scope := ListScope{Status: filter.Status}
	switch actor.Role {
	case enums.ActorRoleAdmin:
		if filter.StoreID != nil {
			scope.StoreIDs = []uuid.UUID{*filter.StoreID}
		}
	case enums.ActorRoleStore:
		if filter.StoreID != nil && *filter.StoreID != actor.ID {
			return ListScope{}, pkgerrors.ActorNotAuthorized("stores only list their own sub-orders")
		}
		scope.StoreIDs = []uuid.UUID{actor.ID}
	case enums.ActorRoleCompany:
		ids, err := s.stores.CompanyOwnedStoreIDs(ctx, *actor.CompanyID)
		if err != nil {
			return ListScope{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company stores")
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		scope.StoreIDs = ids
		if filter.StoreID != nil {
			if !containsID(ids, *filter.StoreID) {
				return ListScope{}, pkgerrors.ActorNotAuthorized("store does not belong to company")
			}
			scope.StoreIDs = []uuid.UUID{*filter.StoreID}
		}
	case enums.ActorRoleCustomer:
		if kind != enums.OrderKindSimple {
			return ListScope{}, pkgerrors.ActorNotAuthorized("customers only place simple orders")
		}
		id := actor.ID
		scope.PlacedBy = &id
	case enums.ActorRoleDistributor:
		if kind != enums.OrderKindAggregated {
			return ListScope{}, pkgerrors.ActorNotAuthorized("distributors only place aggregated orders")
		}
		id := actor.ID
		scope.PlacedBy = &id
	}
	return scope, nil
}

func listError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sub-orders")
}

// mergeLines folds duplicate products into one line and orders lines by
// product id so concurrent checkouts touch stock rows in the same order.
func mergeLines(lines []LineRequest) ([]LineRequest, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	merged := map[uuid.UUID]int{}
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required").
				WithDetails(map[string]any{"line": i})
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"line": i, "productId": line.ProductID.String()})
		}
		merged[line.ProductID] += line.Quantity
	}
	out := make([]LineRequest, 0, len(merged))
	for id, qty := range merged {
		out = append(out, LineRequest{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out, nil
}

func newLine(line allocatedLine) models.Line {
	p := line.product
	returnDays := 0
	if p.ReturnOption {
		returnDays = p.ReturnDays
	}
	var stockStore *uuid.UUID
	if line.alloc.Key.StoreID != nil {
		id := *line.alloc.Key.StoreID
		stockStore = &id
	}
	return models.Line{
		ProductID:       p.ID,
		ProductName:     p.Name,
		Quantity:        line.qty,
		MRP:             p.MRP,
		BasePrice:       line.quote.BasePrice,
		Price:           line.quote.SettledPrice,
		GST:             p.GST,
		DiscountPercent: line.quote.DiscountPercent,
		Discount:        line.quote.DiscountAmount,
		HandlingCharges: p.HandlingCharges,
		ShippingCharges: p.ShippingCharges,
		OtherCharges:    p.OtherCharges,
		LineTotal:       line.quote.LineTotal,
		Status:          enums.LineStatusProcessing,
		ReturnDays:      returnDays,
		WarrantyYears:   p.WarrantyYears,
		AllocationTier:  line.alloc.Tier,
		StockStoreID:    stockStore,
		StockDeducted:   line.alloc.Deduct,
	}
}

func newResult(orderID uuid.UUID, kind enums.OrderKind, total decimal.Decimal) *PlacementResult {
	return &PlacementResult{
		OrderID:      orderID,
		Kind:         kind,
		TotalAmount:  total,
		DisplayTotal: money.Display(total),
	}
}

func placedLine(id uuid.UUID, line models.Line) PlacedLine {
	return PlacedLine{
		ID:             id,
		ProductID:      line.ProductID,
		ProductName:    line.ProductName,
		Quantity:       line.Quantity,
		Price:          line.Price,
		Discount:       line.Discount,
		LineTotal:      line.LineTotal,
		AllocationTier: line.AllocationTier,
	}
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		ActorID:   actor.ID,
		CompanyID: actor.CompanyID,
		Role:      string(actor.Role),
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
