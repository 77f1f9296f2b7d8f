package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the blueprint at path.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint: %w", err)
	}

	bp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bp, nil
}

// Parse decodes and validates a blueprint. Unknown keys are rejected.
func Parse(data []byte) (*Blueprint, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var bp Blueprint
	if err := dec.Decode(&bp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Validate checks field formats and cross references. All problems found
// are returned together; each one is a *FieldError.
func (b *Blueprint) Validate() error {
	if err := newValidator().Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		var errs error
		for _, fe := range verrs {
			errs = multierr.Append(errs, &FieldError{
				Field:  strings.TrimPrefix(fe.Namespace(), "Blueprint."),
				Reason: describe(fe),
			})
		}
		return errs
	}
	return b.checkReferences()
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return fmt.Sprintf("is required with %s", strings.ToLower(fe.Param()))
	case "ip", "ipv4":
		return fmt.Sprintf("%q is not a valid %s address", fe.Value(), fe.Tag())
	case "cidrv4":
		return fmt.Sprintf("%q is not an IPv4 address in CIDR form", fe.Value())
	case "oneof":
		return fmt.Sprintf("%q must be one of: %s", fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

// checkReferences resolves every alias and name used in the document.
func (b *Blueprint) checkReferences() error {
	var errs error
	fail := func(field, format string, args ...interface{}) {
		errs = multierr.Append(errs, &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	for zi, z := range b.TunnelZones {
		for mi, alias := range z.Members {
			field := fmt.Sprintf("tunnel_zones[%d].members[%d]", zi, mi)
			host, ok := b.Hosts[alias]
			if !ok {
				fail(field, "unknown host %q", alias)
				continue
			}
			if host.Address == "" {
				fail(field, "host %q has no address", alias)
			}
		}
	}

	tenants := make(map[string]bool)
	routers := make(map[string]RouterSpec)
	for ti, t := range b.TenantSpecs {
		tfield := fmt.Sprintf("tenants[%d]", ti)
		if tenants[t.Name] {
			fail(tfield+".name", "duplicate tenant %q", t.Name)
		}
		tenants[t.Name] = true

		chains := make(map[string]bool)
		for ci, c := range t.Chains {
			if chains[c] {
				fail(fmt.Sprintf("%s.chains[%d]", tfield, ci), "duplicate chain %q", c)
			}
			chains[c] = true
		}

		bridges := make(map[string]bool)
		for bi, br := range t.Bridges {
			bfield := fmt.Sprintf("%s.bridges[%d]", tfield, bi)
			if bridges[br.Name] {
				fail(bfield+".name", "duplicate bridge %q", br.Name)
			}
			bridges[br.Name] = true
			for ii, iface := range br.Interfaces {
				if _, ok := b.Hosts[iface.Host]; !ok {
					fail(fmt.Sprintf("%s.interfaces[%d].host", bfield, ii), "unknown host %q", iface.Host)
				}
			}
		}

		for ri, r := range t.Routers {
			rfield := fmt.Sprintf("%s.routers[%d]", tfield, ri)
			key := t.Name + "/" + r.Name
			if _, dup := routers[key]; dup {
				fail(rfield+".name", "duplicate router %q", r.Name)
			}
			if r.Chains != nil {
				for _, c := range []string{r.Chains.In, r.Chains.Out} {
					if !chains[c] {
						fail(rfield+".chains", "tenant %q has no chain %q", t.Name, c)
					}
				}
			}

			for pi, p := range r.Ports {
				pfield := fmt.Sprintf("%s.ports[%d]", rfield, pi)
				if len(p.Rules) > 0 && r.Chains == nil {
					fail(pfield+".rules", "NAT rules need router chains")
				}
				for i, rule := range p.Rules {
					if reason := rule.check(); reason != "" {
						fail(fmt.Sprintf("%s.rules[%d]", pfield, i), "%s", reason)
					}
				}

				peer := p.Peer
				set := 0
				for _, v := range []string{peer.Bridge, peer.Router, peer.Host} {
					if v != "" {
						set++
					}
				}
				if set != 1 {
					fail(pfield+".peer", "set exactly one of bridge, router and host")
					continue
				}

				switch {
				case peer.Bridge != "":
					if !bridges[peer.Bridge] {
						fail(pfield+".peer.bridge", "tenant %q has no bridge %q", t.Name, peer.Bridge)
					}
				case peer.Router != "":
					ref := qualify(t.Name, peer.Router)
					target, ok := routers[ref]
					if !ok {
						fail(pfield+".peer.router", "router %q is not defined before this port", ref)
						break
					}
					if len(peer.Rules) > 0 && target.Chains == nil {
						fail(pfield+".peer.rules", "router %q has no chains for NAT rules", ref)
					}
					for i, rule := range peer.Rules {
						if reason := rule.check(); reason != "" {
							fail(fmt.Sprintf("%s.peer.rules[%d]", pfield, i), "%s", reason)
						}
					}
				case peer.Host != "":
					if _, ok := b.Hosts[peer.Host]; !ok {
						fail(pfield+".peer.host", "unknown host %q", peer.Host)
					}
				}

				if peer.Router == "" && (peer.Address != "" || len(peer.Rules) > 0) {
					fail(pfield+".peer", "address and rules apply only to router peers")
				}
			}

			routers[key] = r
		}
	}

	if b.Provider != "" && !tenants[b.Provider] {
		fail("provider", "no tenant named %q", b.Provider)
	}

	return errs
}

func (r RuleSpec) check() string {
	switch {
	case r.Masquerade != "" && r.FloatIP != "":
		return "set either masquerade or float_ip, not both"
	case r.Masquerade == "" && r.FloatIP == "":
		return "set masquerade or float_ip"
	case r.Masquerade != "" && r.FixedIP != "":
		return "fixed_ip applies only to float_ip"
	}
	return ""
}

// qualify turns a router reference into "tenant/router".
func qualify(tenant, ref string) string {
	if strings.Contains(ref, "/") {
		return ref
	}
	return tenant + "/" + ref
}

// Tenants returns the tenant names to resolve, in document order.
func (b *Blueprint) Tenants() []string {
	names := make([]string, 0, len(b.TenantSpecs))
	for _, t := range b.TenantSpecs {
		names = append(names, t.Name)
	}
	return names
}

// HostIDs returns the identifiers of the hosts the document declares, sorted
// by alias.
func (b *Blueprint) HostIDs() []string {
	aliases := make([]string, 0, len(b.Hosts))
	for alias := range b.Hosts {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	seen := make(map[string]bool)
	ids := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		id := b.Hosts[alias].ID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
