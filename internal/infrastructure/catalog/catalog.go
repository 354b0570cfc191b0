// Package catalog carga el catálogo inicial de un tenant (bodegas, variantes y permisos)
// desde el XML que exporta el ERP anterior. El archivo suele venir en ISO-8859-1.
//
//	<catalogo tenant="...">
//	  <bodega id="..." codigo="PRI" nombre="Principal" tipo="DEPOT" activa="true"/>
//	  <variante id="..." sku="CIL-13-LL" nombre="..." gas="GLP" capacidad="13" rol="FULL" par=""/>
//	  <permiso usuario="..." bodega="..." rol="stock:receive"/>
//	</catalogo>
package catalog

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

type xmlCatalog struct {
	Tenant     string         `xml:"tenant,attr"`
	Warehouses []xmlWarehouse `xml:"bodega"`
	Variants   []xmlVariant   `xml:"variante"`
	Grants     []xmlGrant     `xml:"permiso"`
}

type xmlWarehouse struct {
	ID      string `xml:"id,attr"`
	Code    string `xml:"codigo,attr"`
	Name    string `xml:"nombre,attr"`
	Address string `xml:"direccion,attr"`
	Kind    string `xml:"tipo,attr"`
	Active  string `xml:"activa,attr"`
}

type xmlVariant struct {
	ID       string `xml:"id,attr"`
	SKU      string `xml:"sku,attr"`
	Name     string `xml:"nombre,attr"`
	GasType  string `xml:"gas,attr"`
	Capacity string `xml:"capacidad,attr"`
	Role     string `xml:"rol,attr"`
	Paired   string `xml:"par,attr"`
	Active   string `xml:"activa,attr"`
}

type xmlGrant struct {
	UserID      string `xml:"usuario,attr"`
	WarehouseID string `xml:"bodega,attr"`
	Role        string `xml:"rol,attr"`
}

// Grant rol de un usuario sobre una bodega.
type Grant struct {
	UserID      string
	WarehouseID string
	Role        string
}

// Catalog catálogo ya validado de un tenant.
type Catalog struct {
	TenantID   string
	Warehouses []entity.Warehouse
	Variants   []entity.Variant
	Grants     []Grant
}

// Sink destino en memoria del catálogo (lo implementa memory.Store).
type Sink interface {
	PutWarehouse(w entity.Warehouse)
	PutVariant(v entity.Variant)
	Grant(userID, warehouseID string, roles ...string)
}

var validRoles = map[entity.VariantRole]bool{
	entity.VariantRoleEmpty: true,
	entity.VariantRoleFull:  true,
	entity.VariantRoleBulk:  true,
	entity.VariantRoleOther: true,
}

var validGrants = map[string]bool{
	entity.RoleStockReceive: true,
	entity.RoleStockIssue:   true,
	entity.RoleStockAdjust:  true,
	entity.RoleStockReserve: true,
}

// Load decodifica y valida el XML.
func Load(r io.Reader) (*Catalog, error) {
	var raw xmlCatalog
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("catalog: decodificar XML: %w", err)
	}
	if strings.TrimSpace(raw.Tenant) == "" {
		return nil, domain.NewValidation("tenant", "requerido")
	}

	c := &Catalog{TenantID: strings.TrimSpace(raw.Tenant)}
	warehouses := make(map[string]bool, len(raw.Warehouses))
	for _, w := range raw.Warehouses {
		wh, err := c.warehouse(w)
		if err != nil {
			return nil, err
		}
		warehouses[wh.ID] = true
		c.Warehouses = append(c.Warehouses, wh)
	}

	variants := make(map[string]bool, len(raw.Variants))
	for _, v := range raw.Variants {
		variant, err := c.variant(v)
		if err != nil {
			return nil, err
		}
		variants[variant.ID] = true
		c.Variants = append(c.Variants, variant)
	}
	for _, v := range c.Variants {
		if v.PairedVariantID != "" && !variants[v.PairedVariantID] {
			return nil, domain.NewValidation("par", fmt.Sprintf("variante %s: par %s inexistente", v.SKU, v.PairedVariantID))
		}
	}
	// las variantes sin par primero: la FK de paired_variant_id exige ese orden al insertar
	sort.SliceStable(c.Variants, func(i, j int) bool {
		return c.Variants[i].PairedVariantID == "" && c.Variants[j].PairedVariantID != ""
	})

	for _, g := range raw.Grants {
		grant := Grant{UserID: strings.TrimSpace(g.UserID), WarehouseID: strings.TrimSpace(g.WarehouseID), Role: strings.TrimSpace(g.Role)}
		if grant.UserID == "" {
			return nil, domain.NewValidation("usuario", "requerido")
		}
		if !warehouses[grant.WarehouseID] {
			return nil, domain.NewValidation("bodega", fmt.Sprintf("permiso sobre bodega inexistente %s", grant.WarehouseID))
		}
		if !validGrants[grant.Role] {
			return nil, domain.NewValidation("rol", fmt.Sprintf("rol de permiso inválido %q", grant.Role))
		}
		c.Grants = append(c.Grants, grant)
	}
	return c, nil
}

func (c *Catalog) warehouse(w xmlWarehouse) (entity.Warehouse, error) {
	wh := entity.Warehouse{
		ID:       strings.TrimSpace(w.ID),
		TenantID: c.TenantID,
		Code:     strings.TrimSpace(w.Code),
		Name:     strings.TrimSpace(w.Name),
		Address:  strings.TrimSpace(w.Address),
		Kind:     strings.ToUpper(strings.TrimSpace(w.Kind)),
		Active:   parseActive(w.Active),
	}
	if wh.ID == "" || wh.Code == "" {
		return wh, domain.NewValidation("bodega", "id y codigo son requeridos")
	}
	switch wh.Kind {
	case "":
		wh.Kind = entity.WarehouseKindDepot
	case entity.WarehouseKindDepot, entity.WarehouseKindTruck:
	default:
		return wh, domain.NewValidation("tipo", fmt.Sprintf("bodega %s: tipo inválido %q", wh.Code, w.Kind))
	}
	return wh, nil
}

func (c *Catalog) variant(v xmlVariant) (entity.Variant, error) {
	variant := entity.Variant{
		ID:              strings.TrimSpace(v.ID),
		TenantID:        c.TenantID,
		SKU:             strings.TrimSpace(v.SKU),
		Name:            strings.TrimSpace(v.Name),
		GasType:         strings.ToUpper(strings.TrimSpace(v.GasType)),
		Role:            entity.VariantRole(strings.ToUpper(strings.TrimSpace(v.Role))),
		PairedVariantID: strings.TrimSpace(v.Paired),
		Active:          parseActive(v.Active),
	}
	if variant.ID == "" || variant.SKU == "" {
		return variant, domain.NewValidation("variante", "id y sku son requeridos")
	}
	if !validRoles[variant.Role] {
		return variant, domain.NewValidation("rol", fmt.Sprintf("variante %s: rol inválido %q", variant.SKU, v.Role))
	}
	if variant.Role == entity.VariantRoleBulk && variant.GasType == "" {
		return variant, domain.NewValidation("gas", fmt.Sprintf("variante %s: granel sin tipo de gas", variant.SKU))
	}
	if s := strings.TrimSpace(v.Capacity); s != "" {
		capKg, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil || capKg.IsNegative() {
			return variant, domain.NewValidation("capacidad", fmt.Sprintf("variante %s: capacidad inválida %q", variant.SKU, s))
		}
		variant.CapacityKg = capKg
	}
	return variant, nil
}

// Apply vuelca el catálogo en un store en memoria.
func (c *Catalog) Apply(s Sink) {
	for _, w := range c.Warehouses {
		s.PutWarehouse(w)
	}
	for _, v := range c.Variants {
		s.PutVariant(v)
	}
	for _, g := range c.Grants {
		s.Grant(g.UserID, g.WarehouseID, g.Role)
	}
}

// charsetReader el decoder de encoding/xml sólo entiende UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToUpper(strings.ReplaceAll(charset, "_", "-")) {
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "UTF-8", "":
		return input, nil
	}
	return nil, fmt.Errorf("catalog: codificación no soportada %q", charset)
}

// parseActive vacío cuenta como activa.
func parseActive(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no", "n":
		return false
	}
	return true
}
