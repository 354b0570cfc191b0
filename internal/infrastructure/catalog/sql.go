package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteSQL genera el script idempotente de carga para PostgreSQL.
func (c *Catalog) WriteSQL(w io.Writer) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "-- Catálogo del tenant %s\n\n", c.TenantID)

	if len(c.Warehouses) > 0 {
		out.WriteString("-- 1. Bodegas\n")
		out.WriteString("INSERT INTO warehouses (id, tenant_id, code, name, address, kind, active) VALUES\n")
		for i, wh := range c.Warehouses {
			fmt.Fprintf(out, "  ('%s', '%s', '%s', '%s', '%s', '%s', %t)%s\n",
				quote(wh.ID), quote(c.TenantID), quote(wh.Code), quote(wh.Name), quote(wh.Address), wh.Kind, wh.Active,
				separator(i, len(c.Warehouses)))
		}
		out.WriteString("ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name, address = EXCLUDED.address, kind = EXCLUDED.kind, active = EXCLUDED.active;\n\n")
	}

	if len(c.Variants) > 0 {
		out.WriteString("-- 2. Variantes (sin par primero)\n")
		for _, v := range c.Variants {
			fmt.Fprintf(out, "INSERT INTO variants (id, tenant_id, sku, name, gas_type, capacity_kg, role, paired_variant_id, active)\n")
			fmt.Fprintf(out, "VALUES ('%s', '%s', '%s', '%s', %s, %s, '%s', %s, %t)\n",
				quote(v.ID), quote(c.TenantID), quote(v.SKU), quote(v.Name), nullable(v.GasType),
				v.CapacityKg.String(), v.Role, nullable(v.PairedVariantID), v.Active)
			out.WriteString("ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name, gas_type = EXCLUDED.gas_type, capacity_kg = EXCLUDED.capacity_kg, role = EXCLUDED.role, paired_variant_id = EXCLUDED.paired_variant_id, active = EXCLUDED.active;\n")
		}
		out.WriteString("\n")
	}

	if len(c.Grants) > 0 {
		out.WriteString("-- 3. Permisos por bodega\n")
		out.WriteString("INSERT INTO warehouse_grants (tenant_id, user_id, warehouse_id, role) VALUES\n")
		for i, g := range c.Grants {
			fmt.Fprintf(out, "  ('%s', '%s', '%s', '%s')%s\n",
				quote(c.TenantID), quote(g.UserID), quote(g.WarehouseID), quote(g.Role), separator(i, len(c.Grants)))
		}
		out.WriteString("ON CONFLICT DO NOTHING;\n")
	}
	return out.Flush()
}

func quote(s string) string { return strings.ReplaceAll(s, "'", "''") }

func nullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + quote(s) + "'"
}

func separator(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}
