package browse

// Page scripts shared by every retailer. Each is a function expression;
// element arguments arrive as DOM nodes.
const (
	// ScriptOuterHTML returns the outer HTML of the given element, or of the
	// whole document when called without arguments.
	ScriptOuterHTML = `(el) => (el || document.documentElement).outerHTML`

	// ScriptPageOffset returns the vertical scroll offset.
	ScriptPageOffset = `() => window.pageYOffset || document.documentElement.scrollTop || 0`

	// ScriptScrollToBottom jumps to the end of the document and returns the
	// new offset.
	ScriptScrollToBottom = `() => {
		window.scrollTo(0, document.body.scrollHeight);
		return window.pageYOffset || document.documentElement.scrollTop || 0;
	}`

	// ScriptSyntheticClick dispatches a full pointer and mouse event sequence
	// on an element, for buttons that ignore plain clicks.
	ScriptSyntheticClick = `(el) => {
		el.scrollIntoView({block: 'center'});
		const r = el.getBoundingClientRect();
		const opts = {bubbles: true, cancelable: true, view: window,
			clientX: r.left + r.width / 2, clientY: r.top + r.height / 2};
		for (const type of ['pointerover', 'pointerdown', 'mousedown', 'pointerup', 'mouseup', 'click']) {
			const ev = type.startsWith('pointer') ? new PointerEvent(type, opts) : new MouseEvent(type, opts);
			el.dispatchEvent(ev);
		}
		return true;
	}`

	// ScriptSetValue sets an input's value and fires input and change events.
	ScriptSetValue = `(el, value) => {
		const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
		setter.call(el, value);
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	}`
)
