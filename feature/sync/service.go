package sync

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/utils"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
)

// Entity result actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionInSync  = "in-sync"
	ActionDeleted = "deleted"
	ActionSkipped = "skipped"
	ActionFailed  = "failed"
)

// Source is the slice of the NetBox client the sync driver consumes.
type Source interface {
	Devices(ctx context.Context, filter url.Values) ([]*netbox.Object, error)
	VirtualMachines(ctx context.Context, filter url.Values) ([]*netbox.Object, error)
	Device(ctx context.Context, id int64) (*netbox.Object, error)
	VirtualMachine(ctx context.Context, id int64) (*netbox.Object, error)
	Sites(ctx context.Context) (map[int64]*netbox.Object, error)
	Regions(ctx context.Context) ([]netbox.TreeNode, error)
	SiteGroups(ctx context.Context) ([]netbox.TreeNode, error)
	CustomFields(ctx context.Context, contentType string) ([]netbox.CustomFieldDef, error)
	SetCustomField(ctx context.Context, contentType string, id int64, field string, value any) error
	CreateJournalEntry(ctx context.Context, contentType string, id int64, kind, comments string) error
}

// EntityResult describes the outcome of reconciling one entity.
type EntityResult struct {
	Kind    string   `json:"kind"`
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	HostID  string   `json:"host_id,omitempty"`
	Action  string   `json:"action"`
	Changes []string `json:"changes,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ResultSink receives per-entity outcomes. Implementations must be safe for
// concurrent use since entities are reconciled in parallel.
type ResultSink interface {
	Record(result EntityResult)
}

// Service drives a full reconciliation run over all NetBox devices and
// virtual machines.
type Service struct {
	source Source
	target TargetAPI
	caps   zabbix.Capabilities
	cfg    *Config
	sink   ResultSink
	logger *zap.Logger
}

// NewService wires the sync driver. sink may be nil.
func NewService(source Source, target TargetAPI, caps zabbix.Capabilities, cfg *Config, sink ResultSink, logger *zap.Logger) *Service {
	cfg.Normalize()
	return &Service{
		source: source,
		target: target,
		caps:   caps,
		cfg:    cfg,
		sink:   sink,
		logger: logger,
	}
}

// runState is the lookup data fetched once per run and shared read-only
// between workers, except for the synchronized group cache inside checker.
type runState struct {
	checker    *Checker
	deviceDeps EntityDeps
	vmDeps     EntityDeps
	sites      map[int64]*netbox.Object
}

// Run reconciles every entity. Per-entity failures are contained and
// recorded; only run-level preparation failures abort the run.
func (s *Service) Run(ctx context.Context) error {
	state, err := s.prepare(ctx)
	if err != nil {
		return err
	}

	if s.cfg.SyncVMs {
		vms, err := s.listVMs(ctx)
		if err != nil {
			return err
		}
		if err := s.syncAll(ctx, state, KindVM, vms); err != nil {
			return err
		}
	}
	devices, err := s.listDevices(ctx)
	if err != nil {
		return err
	}
	return s.syncAll(ctx, state, KindDevice, devices)
}

// SyncOne reconciles a single entity by NetBox ID, giving the webhook a way
// to react to object changes without a full run.
func (s *Service) SyncOne(ctx context.Context, kind string, id int64) (EntityResult, error) {
	state, err := s.prepare(ctx)
	if err != nil {
		return EntityResult{}, err
	}
	var obj *netbox.Object
	switch kind {
	case KindDevice:
		obj, err = s.source.Device(ctx, id)
	case KindVM:
		obj, err = s.source.VirtualMachine(ctx, id)
	default:
		return EntityResult{}, configErrorf("unsupported object kind %q", kind)
	}
	if err != nil {
		return EntityResult{}, externalError(fmt.Sprintf("unable to fetch %s %d", kind, id), err)
	}
	result := s.syncObject(ctx, state, kind, obj)
	if result.Action == ActionFailed {
		return result, fmt.Errorf("%s", result.Error)
	}
	return result, nil
}

// VerifyFormats validates the configured hostgroup formats against the
// custom field definitions without touching Zabbix.
func (s *Service) VerifyFormats(ctx context.Context) error {
	deviceFields, err := s.customFields(ctx, netbox.ContentTypeDevice)
	if err != nil {
		return err
	}
	if err := VerifyFormat(s.cfg.HostgroupFormats(), KindDevice, deviceFields); err != nil {
		return err
	}
	if !s.cfg.SyncVMs {
		return nil
	}
	vmFields, err := s.customFields(ctx, netbox.ContentTypeVM)
	if err != nil {
		return err
	}
	return VerifyFormat(s.cfg.VMHostgroupFormats(), KindVM, vmFields)
}

func (s *Service) prepare(ctx context.Context) (*runState, error) {
	if err := s.VerifyFormats(ctx); err != nil {
		return nil, err
	}

	sites, err := s.source.Sites(ctx)
	if err != nil {
		return nil, externalError("unable to fetch sites", err)
	}

	nesting := NestingOptions{
		Regions:    s.cfg.TraverseRegions,
		SiteGroups: s.cfg.TraverseSiteGroups,
	}
	if nesting.Regions {
		if nesting.RegionNodes, err = s.source.Regions(ctx); err != nil {
			return nil, externalError("unable to fetch regions", err)
		}
	}
	if nesting.SiteGroups {
		if nesting.GroupNodes, err = s.source.SiteGroups(ctx); err != nil {
			return nil, externalError("unable to fetch site groups", err)
		}
	}

	groups, err := s.target.HostgroupGet(ctx)
	if err != nil {
		return nil, externalError("unable to fetch hostgroups", err)
	}
	templates, err := s.target.TemplateGet(ctx)
	if err != nil {
		return nil, externalError("unable to fetch templates", err)
	}
	templateIndex := make(map[string]string, len(templates))
	for _, t := range templates {
		templateIndex[t.Name] = t.TemplateID
	}

	proxies, err := s.target.ProxyGet(ctx, s.caps.ProxyNameField())
	if err != nil {
		return nil, externalError("unable to fetch proxies", err)
	}
	var proxyGroups []zabbix.ProxyGroup
	if s.caps.SupportsProxyGroups() {
		if proxyGroups, err = s.target.ProxyGroupGet(ctx); err != nil {
			return nil, externalError("unable to fetch proxy groups", err)
		}
	}
	descriptors := PrepareProxies(proxies, proxyGroups, s.caps)

	deviceFields, err := s.customFields(ctx, netbox.ContentTypeDevice)
	if err != nil {
		return nil, err
	}
	state := &runState{
		checker: NewChecker(s.target, s.caps, s.cfg, NewGroupCache(groups), templateIndex, s.logger),
		deviceDeps: EntityDeps{
			Fields:  deviceFields,
			Nesting: nesting,
			Caps:    s.caps,
			Proxies: descriptors,
		},
		sites: sites,
	}
	if s.cfg.SyncVMs {
		vmFields, err := s.customFields(ctx, netbox.ContentTypeVM)
		if err != nil {
			return nil, err
		}
		state.vmDeps = EntityDeps{
			Fields:  vmFields,
			Nesting: nesting,
			Caps:    s.caps,
			Proxies: descriptors,
		}
	}
	return state, nil
}

func (s *Service) customFields(ctx context.Context, contentType string) (map[string]netbox.CustomFieldDef, error) {
	defs, err := s.source.CustomFields(ctx, contentType)
	if err != nil {
		return nil, externalError(fmt.Sprintf("unable to fetch custom fields for %s", contentType), err)
	}
	fields := make(map[string]netbox.CustomFieldDef, len(defs))
	for _, def := range defs {
		fields[def.Name] = def
	}
	return fields, nil
}

func (s *Service) listDevices(ctx context.Context) ([]*netbox.Object, error) {
	filter, err := url.ParseQuery(s.cfg.DeviceFilter)
	if err != nil {
		return nil, configErrorf("invalid device filter %q: %v", s.cfg.DeviceFilter, err)
	}
	devices, err := s.source.Devices(ctx, filter)
	if err != nil {
		return nil, externalError("unable to fetch devices", err)
	}
	return devices, nil
}

func (s *Service) listVMs(ctx context.Context) ([]*netbox.Object, error) {
	filter, err := url.ParseQuery(s.cfg.VMFilter)
	if err != nil {
		return nil, configErrorf("invalid vm filter %q: %v", s.cfg.VMFilter, err)
	}
	vms, err := s.source.VirtualMachines(ctx, filter)
	if err != nil {
		return nil, externalError("unable to fetch virtual machines", err)
	}
	return vms, nil
}

// syncAll reconciles one object list with a bounded worker pool. Worker
// errors are contained per entity, so the group only propagates context
// cancellation.
func (s *Service) syncAll(ctx context.Context, state *runState, kind string, objects []*netbox.Object) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Workers)
	for _, obj := range objects {
		obj := obj
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := s.syncObject(ctx, state, kind, obj)
			s.record(result)
			return nil
		})
	}
	return group.Wait()
}

func (s *Service) syncObject(ctx context.Context, state *runState, kind string, obj *netbox.Object) EntityResult {
	name := obj.Name()
	result := EntityResult{Kind: kind, ID: obj.ID(), Name: name}
	fail := func(err error) EntityResult {
		s.logger.Error("unable to sync entity",
			zap.String("kind", kind), zap.String("name", name), zap.Error(err))
		result.Action = ActionFailed
		result.Error = err.Error()
		return result
	}

	s.spliceSite(state, obj)

	nameOverride := ""
	if kind == KindDevice && s.cfg.Clustering {
		override, skip, err := ClusterPromotion(obj, s.logger)
		if err != nil {
			return fail(err)
		}
		if skip {
			result.Action = ActionSkipped
			return result
		}
		nameOverride = override
	}

	deps := state.deviceDeps
	if kind == KindVM {
		deps = state.vmDeps
	}
	var entity *Entity
	var err error
	if kind == KindVM {
		entity, err = NewVirtualMachine(obj, s.cfg, deps, s.logger)
	} else {
		entity, err = NewDevice(obj, s.cfg, deps, nameOverride, s.logger)
	}
	if err != nil {
		return fail(err)
	}
	result.Name = entity.Name
	result.HostID = entity.HostID

	if slices.Contains(s.cfg.RemovalStatusList(), entity.Status) {
		return s.removeEntity(ctx, entity, result, fail)
	}
	if slices.Contains(s.cfg.DisableStatusList(), entity.Status) {
		entity.Disable()
	}

	if entity.HostID == "" {
		return s.createEntity(ctx, state, entity, result, fail)
	}

	changes, err := state.checker.Run(ctx, entity)
	if err != nil {
		return fail(err)
	}
	result.Changes = changes
	if len(changes) == 0 {
		result.Action = ActionInSync
		return result
	}
	result.Action = ActionUpdated
	s.journal(ctx, entity, "info", "Updated host in Zabbix with latest NetBox data.")
	return result
}

// removeEntity deletes the Zabbix host of a decommissioned entity and
// unlinks the NetBox custom field.
func (s *Service) removeEntity(ctx context.Context, entity *Entity, result EntityResult, fail func(error) EntityResult) EntityResult {
	if entity.HostID == "" {
		s.logger.Debug("entity has a removal status and no linked host, nothing to do",
			zap.String("name", entity.Name), zap.String("status", entity.Status))
		result.Action = ActionSkipped
		return result
	}
	if err := s.target.HostDelete(ctx, entity.HostID); err != nil {
		return fail(externalError(fmt.Sprintf("unable to delete host %s", entity.Name), err))
	}
	if err := s.source.SetCustomField(ctx, entity.ContentType, entity.ID, s.cfg.LinkCustomField, nil); err != nil {
		return fail(externalError(fmt.Sprintf("unable to unlink %s", entity.Name), err))
	}
	s.logger.Info("deleted host from Zabbix",
		zap.String("name", entity.Name), zap.String("status", entity.Status))
	s.journal(ctx, entity, "warning", "Deleted host from Zabbix.")
	result.Action = ActionDeleted
	return result
}

func (s *Service) createEntity(ctx context.Context, state *runState, entity *Entity, result EntityResult, fail func(error) EntityResult) EntityResult {
	exists, err := s.hostnameExists(ctx, entity)
	if err != nil {
		return fail(err)
	}
	if exists {
		return fail(preconditionErrorf(
			"%s %s: hostname already present in Zabbix but not linked, manual intervention required",
			entity.Kind, entity.Name))
	}
	hostID, err := state.checker.Create(ctx, entity)
	if err != nil {
		return fail(err)
	}
	if err := s.source.SetCustomField(ctx, entity.ContentType, entity.ID, s.cfg.LinkCustomField, utils.ToInt(hostID)); err != nil {
		return fail(externalError(fmt.Sprintf("unable to write host ID back to %s", entity.Name), err))
	}
	s.logger.Info("created host in Zabbix", zap.String("name", entity.Name))
	s.journal(ctx, entity, "success", "Created host in Zabbix.")
	result.HostID = hostID
	result.Action = ActionCreated
	return result
}

func (s *Service) hostnameExists(ctx context.Context, entity *Entity) (bool, error) {
	hosts, err := s.target.HostGet(ctx, map[string]any{
		"filter": entity.LookupFilter(),
		"output": []string{"hostid"},
	})
	if err != nil {
		return false, externalError(fmt.Sprintf("unable to look up hostname %s", entity.Name), err)
	}
	return len(hosts) > 0, nil
}

// spliceSite replaces the brief site reference on a device or VM with the
// full site record, whose region and group attributes the listing omits.
func (s *Service) spliceSite(state *runState, obj *netbox.Object) {
	raw, ok := obj.Lookup("site", "id")
	if !ok {
		return
	}
	site, ok := state.sites[int64(utils.ToInt(raw))]
	if !ok {
		return
	}
	obj.Attrs()["site"] = site.Attrs()
}

func (s *Service) journal(ctx context.Context, entity *Entity, kind, message string) {
	if !s.cfg.CreateJournal {
		return
	}
	if err := s.source.CreateJournalEntry(ctx, entity.ContentType, entity.ID, kind, message); err != nil {
		s.logger.Warn("unable to create journal entry",
			zap.String("name", entity.Name), zap.Error(err))
	}
}

func (s *Service) record(result EntityResult) {
	if s.sink != nil {
		s.sink.Record(result)
	}
}
