package svg

import (
	"bytes"
	"fmt"
)

const interactionCSS = `
    .node circle, .edge { transition: opacity 0.2s ease, stroke-width 0.2s ease; }
    .node.off, .edge-label.off { opacity: 0.35; }
    .node.selected circle, .node.hovered circle { stroke-width: 3; }
    .node { cursor: pointer; }`

// interactionJS mirrors the engine's highlight rules in the browser: the
// hovered node shadows the selection and highlight covers direct
// neighbours. The category filter is applied before rendering, so the
// legend is static here.
const interactionJS = `
    const root = document.currentScript ? document.currentScript.ownerSVGElement : document.querySelector('svg[data-diagram]');
    const nodes = Array.from(root.querySelectorAll('.node'));
    const edges = Array.from(root.querySelectorAll('.edge'));
    const labels = Array.from(root.querySelectorAll('.edge-label'));
    let hovered = null;
    let selected = (root.querySelector('.node.selected') || {id: ''}).id.replace('node-', '') || null;
    const id = el => el.id.replace('node-', '');
    function setState(el, state) {
      el.classList.remove('on', 'off', 'neutral');
      el.classList.add(state);
    }
    function stroke(e, state) {
      const w = Number(e.dataset.width);
      if (state === 'on') { e.setAttribute('stroke-width', w + 1); e.setAttribute('stroke-opacity', 1); e.removeAttribute('stroke-dasharray'); }
      else if (state === 'off') { e.setAttribute('stroke-width', Math.max(0.5, w * 0.5)); e.setAttribute('stroke-opacity', 0.2); e.setAttribute('stroke-dasharray', '4 4'); }
      else { e.setAttribute('stroke-width', w); e.setAttribute('stroke-opacity', 0.6); e.removeAttribute('stroke-dasharray'); }
    }
    function render() {
      const active = hovered || selected;
      const near = new Set();
      if (active) {
        near.add(active);
        edges.forEach(e => {
          if (e.dataset.from === active) near.add(e.dataset.to);
          if (e.dataset.to === active) near.add(e.dataset.from);
        });
      }
      nodes.forEach(n => {
        setState(n, !active ? 'neutral' : near.has(id(n)) ? 'on' : 'off');
        n.classList.toggle('selected', id(n) === selected);
        n.classList.toggle('hovered', id(n) === hovered);
      });
      edges.forEach(e => {
        const s = !active ? 'neutral' : (e.dataset.from === active || e.dataset.to === active) ? 'on' : 'off';
        setState(e, s);
        stroke(e, s);
      });
      labels.forEach(l => setState(l, !active ? 'neutral' : (l.dataset.from === active || l.dataset.to === active) ? 'on' : 'off'));
      root.dispatchEvent(new CustomEvent('nodeselect', {detail: selected}));
    }
    nodes.forEach(n => {
      n.addEventListener('mouseenter', () => { hovered = id(n); render(); });
      n.addEventListener('mouseleave', () => { if (hovered === id(n)) { hovered = null; render(); } });
      n.addEventListener('click', ev => { ev.stopPropagation(); selected = selected === id(n) ? null : id(n); render(); });
    });
    root.addEventListener('click', () => { if (selected) { selected = null; render(); } });`

func renderInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", interactionCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
}
