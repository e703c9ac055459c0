package dbtest

// schema mirrors the postgres migrations using sqlite types. uuid and numeric
// columns are TEXT so values round-trip exactly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  name TEXT NOT NULL,
  mrp TEXT NOT NULL,
  price TEXT NOT NULL,
  gst TEXT NOT NULL DEFAULT '0',
  discount TEXT NOT NULL DEFAULT '0',
  handling_charges TEXT NOT NULL DEFAULT '0',
  shipping_charges TEXT NOT NULL DEFAULT '0',
  other_charges TEXT NOT NULL DEFAULT '0',
  stock_level INTEGER NOT NULL DEFAULT 0 CHECK (stock_level >= 0),
  return_option INTEGER NOT NULL DEFAULT 0,
  return_days INTEGER NOT NULL DEFAULT 0,
  warranty_years INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  name TEXT NOT NULL,
  store_type TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS store_service_areas (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  postal_code TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS store_product_stocks (
  id TEXT PRIMARY KEY,
  store_id TEXT,
  company_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  stock_level INTEGER NOT NULL DEFAULT 0 CHECK (stock_level >= 0),
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS saved_addresses (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS delivery_addresses (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS price_rules (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  discount_percent TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  is_paid INTEGER NOT NULL DEFAULT 0,
  payment_method TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id),
  store_id TEXT NOT NULL,
  company_id TEXT NOT NULL,
  order_status TEXT NOT NULL DEFAULT 'pending',
  sub_total TEXT NOT NULL,
  delivery_address_id TEXT NOT NULL,
  track_id TEXT,
  ship_date DATETIME,
  courier_company_id TEXT,
  note TEXT,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS order_products (
  id TEXT PRIMARY KEY,
  order_item_id TEXT NOT NULL REFERENCES order_items(id),
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  return_quantity INTEGER NOT NULL DEFAULT 0,
  mrp TEXT NOT NULL,
  base_price TEXT NOT NULL,
  price TEXT NOT NULL,
  gst TEXT NOT NULL,
  discount_percent TEXT NOT NULL DEFAULT '0',
  discount TEXT NOT NULL DEFAULT '0',
  handling_charges TEXT NOT NULL DEFAULT '0',
  shipping_charges TEXT NOT NULL DEFAULT '0',
  other_charges TEXT NOT NULL DEFAULT '0',
  line_total TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'processing',
  is_cancel INTEGER NOT NULL DEFAULT 0,
  return_days INTEGER NOT NULL DEFAULT 0,
  return_date DATETIME,
  warranty_years INTEGER NOT NULL DEFAULT 0,
  warranty_expires_at DATETIME,
  warranty_codes TEXT,
  allocation_tier TEXT NOT NULL,
  stock_store_id TEXT,
  stock_deducted INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS cancel_orders (
  id TEXT PRIMARY KEY,
  order_item_id TEXT NOT NULL,
  order_product_id TEXT NOT NULL,
  requested_by TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reason TEXT,
  order_status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS return_orders (
  id TEXT PRIMARY KEY,
  order_item_id TEXT NOT NULL,
  order_product_id TEXT NOT NULL,
  requested_by TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reason TEXT,
  order_status TEXT NOT NULL DEFAULT 'pending',
  pick_up_date DATETIME,
  pick_up_time TEXT,
  pick_up_courier_company_id TEXT,
  pick_up_track_id TEXT,
  transaction_id TEXT,
  refund_amount TEXT,
  courier_amount TEXT,
  other_amount TEXT,
  handling_amount TEXT,
  refund_comment TEXT,
  refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS aggregated_orders (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  price_rule_name TEXT,
  total_amount TEXT NOT NULL,
  is_paid INTEGER NOT NULL DEFAULT 0,
  payment_method TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS aggregated_order_items (
  id TEXT PRIMARY KEY,
  aggregated_order_id TEXT NOT NULL REFERENCES aggregated_orders(id),
  store_id TEXT NOT NULL,
  company_id TEXT NOT NULL,
  order_state TEXT NOT NULL DEFAULT 'processing',
  order_status TEXT NOT NULL DEFAULT 'pending',
  cancel_status TEXT,
  return_status TEXT,
  return_line_id TEXT,
  return_quantity INTEGER NOT NULL DEFAULT 0,
  cancel_reason TEXT,
  return_reason TEXT,
  sub_total TEXT NOT NULL,
  delivery_address_id TEXT NOT NULL,
  track_id TEXT,
  ship_date DATETIME,
  courier_company_id TEXT,
  note TEXT,
  delivered_at DATETIME,
  pick_up_date DATETIME,
  pick_up_time TEXT,
  pick_up_courier_company_id TEXT,
  pick_up_track_id TEXT,
  transaction_id TEXT,
  refund_amount TEXT,
  courier_amount TEXT,
  other_amount TEXT,
  handling_amount TEXT,
  refund_comment TEXT,
  refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS aggregated_order_products (
  id TEXT PRIMARY KEY,
  aggregated_order_item_id TEXT NOT NULL REFERENCES aggregated_order_items(id),
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  return_quantity INTEGER NOT NULL DEFAULT 0,
  mrp TEXT NOT NULL,
  base_price TEXT NOT NULL,
  price TEXT NOT NULL,
  gst TEXT NOT NULL,
  discount_percent TEXT NOT NULL DEFAULT '0',
  discount TEXT NOT NULL DEFAULT '0',
  handling_charges TEXT NOT NULL DEFAULT '0',
  shipping_charges TEXT NOT NULL DEFAULT '0',
  other_charges TEXT NOT NULL DEFAULT '0',
  line_total TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'processing',
  is_cancel INTEGER NOT NULL DEFAULT 0,
  return_days INTEGER NOT NULL DEFAULT 0,
  return_date DATETIME,
  warranty_years INTEGER NOT NULL DEFAULT 0,
  warranty_expires_at DATETIME,
  warranty_codes TEXT,
  allocation_tier TEXT NOT NULL,
  stock_store_id TEXT,
  stock_deducted INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS order_status_history (
  id TEXT PRIMARY KEY,
  order_item_id TEXT NOT NULL,
  from_status TEXT,
  to_status TEXT NOT NULL,
  changed_by TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS cancel_order_status_history (
  id TEXT PRIMARY KEY,
  cancel_order_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  from_status TEXT,
  to_status TEXT NOT NULL,
  changed_by TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS return_order_status_history (
  id TEXT PRIMARY KEY,
  return_order_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  from_status TEXT,
  to_status TEXT NOT NULL,
  changed_by TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS aggregated_order_status_history (
  id TEXT PRIMARY KEY,
  aggregated_order_item_id TEXT NOT NULL,
  machine TEXT NOT NULL,
  order_state TEXT NOT NULL,
  from_status TEXT,
  to_status TEXT NOT NULL,
  changed_by TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_store_product_stocks_store ON store_product_stocks (store_id, product_id) WHERE store_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_store_product_stocks_pool ON store_product_stocks (company_id, product_id) WHERE store_id IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_cancel_orders_open_line ON cancel_orders (order_item_id, order_product_id) WHERE order_status IN ('pending', 'accepted')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_return_orders_open_line ON return_orders (order_item_id, order_product_id) WHERE order_status IN ('pending', 'accepted', 'pick_up', 'received')`,
}
