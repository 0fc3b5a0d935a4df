package recon

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const itcSchema = `{
  "type": "object",
  "required": ["by_head", "overall"],
  "properties": {
    "gstin": {"type": ["string", "null"]},
    "period": {"type": ["string", "null"]},
    "by_head": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"$ref": "#/$defs/head"}
    },
    "overall": {
      "type": "object",
      "required": ["total_available_2b", "total_claimed_3b", "difference", "status"],
      "properties": {
        "total_available_2b": {"type": "number"},
        "total_claimed_3b": {"type": "number"},
        "difference": {"type": "number"},
        "status": {"$ref": "#/$defs/status"}
      }
    },
    "issues": {"type": ["array", "null"], "items": {"$ref": "#/$defs/issue"}}
  },
  "$defs": {
    "status": {"enum": ["match", "over_claimed", "under_claimed"]},
    "head": {
      "type": "object",
      "required": ["available_2b", "claimed_3b", "difference", "status"],
      "properties": {
        "available_2b": {"type": "number"},
        "claimed_3b": {"type": "number"},
        "difference": {"type": "number"},
        "status": {"$ref": "#/$defs/status"}
      }
    },
    "issue": {
      "type": "object",
      "required": ["level", "message"],
      "properties": {
        "code": {"type": "string"},
        "level": {"type": "string"},
        "message": {"type": "string"}
      }
    }
  }
}`

const purchaseSchema = `{
  "type": "object",
  "required": ["status", "difference"],
  "anyOf": [
    {"required": ["totals"]},
    {"required": ["itc_from_purchase_register", "itc_from_gstr3b"]}
  ],
  "properties": {
    "status": {"enum": ["matched", "itc_underclaimed", "itc_overclaimed"]},
    "totals": {
      "type": "object",
      "properties": {
        "purchase_register": {"$ref": "#/$defs/heads"},
        "gstr3b": {"$ref": "#/$defs/heads"}
      }
    },
    "itc_from_purchase_register": {"$ref": "#/$defs/heads"},
    "itc_from_gstr3b": {"$ref": "#/$defs/heads"},
    "difference": {"$ref": "#/$defs/heads"},
    "warnings": {"type": ["array", "null"], "items": {"type": "string"}},
    "source_purchase_register_job_id": {"type": ["string", "null"]},
    "source_purchase_register_filename": {"type": ["string", "null"]}
  },
  "$defs": {
    "heads": {"type": "object", "additionalProperties": {"type": ["number", "null"]}}
  }
}`

const salesSchema = `{
  "type": "object",
  "required": ["status", "totals", "difference"],
  "properties": {
    "status": {"enum": ["matched", "turnover_underreported", "turnover_overreported"]},
    "totals": {
      "type": "object",
      "required": ["sales_register", "gstr1"],
      "properties": {
        "sales_register": {"$ref": "#/$defs/heads"},
        "gstr1": {"$ref": "#/$defs/heads"}
      }
    },
    "difference": {"$ref": "#/$defs/heads"},
    "missing_in_gstr1": {"type": ["array", "null"], "items": {"$ref": "#/$defs/invoice"}},
    "missing_in_sales_register": {"type": ["array", "null"], "items": {"$ref": "#/$defs/invoice"}},
    "value_mismatches": {"type": ["array", "null"], "items": {"$ref": "#/$defs/mismatch"}},
    "warnings": {"type": ["array", "null"], "items": {"type": "string"}},
    "source_sales_register_job_id": {"type": ["string", "null"]},
    "source_sales_register_filename": {"type": ["string", "null"]},
    "source_gstr1_job_id": {"type": ["string", "null"]},
    "source_gstr1_filename": {"type": ["string", "null"]}
  },
  "$defs": {
    "heads": {"type": "object", "additionalProperties": {"type": ["number", "null"]}},
    "invoiceNumber": {"type": ["string", "number"]},
    "invoice": {
      "type": "object",
      "required": ["invoice_number"],
      "properties": {
        "invoice_number": {"$ref": "#/$defs/invoiceNumber"},
        "invoice_date": {"type": ["string", "null"]},
        "customer_name": {"type": ["string", "null"]},
        "customer_gstin": {"type": ["string", "null"]},
        "taxable_value": {"type": ["number", "null"]},
        "total_value": {"type": ["number", "null"]}
      }
    },
    "mismatch": {
      "type": "object",
      "required": ["invoice_number"],
      "properties": {
        "invoice_number": {"$ref": "#/$defs/invoiceNumber"},
        "invoice_date": {"type": ["string", "null"]},
        "sales_register_value": {"type": ["number", "null"]},
        "gstr1_value": {"type": ["number", "null"]},
        "difference": {"type": ["number", "null"]}
      }
    }
  }
}`

var schemas = map[Kind]*jsonschema.Schema{
	KindITC2B3B:          mustCompile("itc_2b_3b.json", itcSchema),
	KindPurchaseVsGSTR3B: mustCompile("purchase_vs_gstr3b_itc.json", purchaseSchema),
	KindSalesVsGSTR1:     mustCompile("sales_vs_gstr1.json", salesSchema),
}

func mustCompile(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("recon: add schema %s: %v", name, err))
	}
	s, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("recon: compile schema %s: %v", name, err))
	}
	return s
}

// check validates raw against the schema registered for kind.
func check(kind Kind, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schemas[kind].Validate(v); err != nil {
		return fmt.Errorf("payload does not match %s shape: %w", kind, err)
	}
	return nil
}
