// Package generator composes the CRUD services of each entity and registers
// them into the container.
//
// An EntityBuilder collects contract → constructor mappings and pre-built
// instances for one entity type. Generating a builder runs four steps:
//
//  1. Order sorts the mappings so each constructor comes after the mappings
//     whose contracts it takes, and rejects cycles.
//  2. Synthesize names each mapping <Entity>_<Impl> and decides, per target
//     contract, how the constructed value satisfies it: directly, through a
//     pointer to it, or through an adapter of the builder. Interface
//     contracts also get a synthesized contract I<Entity>_<Impl>.
//  3. Emit lays out a Plan: one request-scoped registration per target,
//     then one singleton per instance, then tags.
//  4. Plan.Apply hands the Plan to a Registrar such as *container.Container.
//
// A builder that fails to plan registers nothing. A registration failure
// during Apply stops the plan there and keeps what was already registered.
// Builders applied before a failing one stay in place.
//
//	b := generator.ForEntity[int64, *Person]().
//	    With(memory.Crud[int64, *Person](memory.Options{})).
//	    Register(generator.ContractOf[Notifier](), NewMailNotifier)
//
//	plans, err := generator.New(log).AddBuilder(b).Generate(app)
package generator
